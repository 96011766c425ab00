package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdulelahsg/dynamic-links/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads routes from Postgres:
//
//	CREATE TABLE deeplink_targets (
//	    path     text  NOT NULL,
//	    platform text  NOT NULL,
//	    target   jsonb NOT NULL, -- "https://..." or {"appName": ...}
//	    position int   NOT NULL DEFAULT 0,
//	    PRIMARY KEY (path, platform)
//	);
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadRoutes loads every path with its targets, routes ordered by their
// lowest position.
func (s *Store) LoadRoutes(ctx context.Context) ([]RouteRow, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT t.path, t.platform, t.target
		FROM deeplink_targets t
		JOIN (
			SELECT path, MIN(position) AS pos FROM deeplink_targets GROUP BY path
		) p ON p.path = t.path
		ORDER BY p.pos, t.path, t.platform
	`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	var (
		out   []RouteRow
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			path, platform string
			raw            []byte
		)
		if err := rows.Scan(&path, &platform, &raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		var target TargetRow
		if err := json.Unmarshal(raw, &target); err != nil {
			return nil, fmt.Errorf("route %s platform %s: %w", path, platform, err)
		}

		i, ok := index[path]
		if !ok {
			i = len(out)
			index[path] = i
			out = append(out, RouteRow{Path: path, Targets: map[string]TargetRow{}})
		}
		out[i].Targets[platform] = target
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (s *Store) ListenChannel() string {
	return "deeplink_routes_changed"
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}
