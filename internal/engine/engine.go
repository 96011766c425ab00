package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Abdulelahsg/dynamic-links/internal/cache"
	"github.com/Abdulelahsg/dynamic-links/internal/observability"
	"github.com/Abdulelahsg/dynamic-links/internal/platform"
	"github.com/Abdulelahsg/dynamic-links/internal/storage"
)

// RouteSource supplies the raw route table.
type RouteSource interface {
	LoadRoutes(ctx context.Context) ([]storage.RouteRow, error)
}

type snapshot struct {
	routes map[string]TargetMap
}

// Engine exposes read-only, lock-free match operations over the last
// successfully built route snapshot.
type Engine struct {
	snap     cache.Snapshot[snapshot]
	detector platform.Detector
}

func NewEngine(d platform.Detector) *Engine { return &Engine{detector: d} }

// BuildSnapshot loads and validates the route table and swaps it in.
// On error the previous snapshot stays in place.
func (e *Engine) BuildSnapshot(ctx context.Context, src RouteSource) error {
	rows, err := src.LoadRoutes(ctx)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}

	routes, err := buildRoutes(rows)
	if err != nil {
		return err
	}

	e.snap.Store(snapshot{routes: routes})
	observability.RoutesLoaded.Set(float64(len(routes)))
	log.Info().Int("routes", len(routes)).Msg("route snapshot built")
	return nil
}

// buildRoutes normalizes raw rows into target maps keyed by path.
func buildRoutes(rows []storage.RouteRow) (map[string]TargetMap, error) {
	if len(rows) == 0 {
		return nil, ErrNoRoutes
	}

	routes := make(map[string]TargetMap, len(rows))
	for _, r := range rows {
		if r.Path == "" {
			return nil, &ConfigError{Err: errEmptyPath}
		}
		if _, dup := routes[r.Path]; dup {
			log.Warn().Str("path", r.Path).Msg("duplicate route ignored; first entry wins")
			continue
		}

		tm := make(TargetMap, len(r.Targets))
		for key, raw := range r.Targets {
			name := strings.ToLower(strings.TrimSpace(key))
			if !platform.Valid(name) {
				return nil, &ConfigError{Path: r.Path, Platform: key, Err: errUnknownPlatform}
			}
			tag := platform.Tag(name)

			if !raw.IsObject {
				if raw.URL == "" {
					log.Warn().Str("path", r.Path).Str("platform", name).Msg("empty target ignored")
					continue
				}
				tm[tag] = Target{URL: raw.URL}
				continue
			}

			if tag == platform.Default {
				return nil, &ConfigError{Path: r.Path, Platform: key, Err: errDefaultNotURL}
			}
			if raw.Object.AppName == "" {
				log.Warn().Str("path", r.Path).Str("platform", name).
					Msg("target has no appName and will never be rendered as a deep link")
			}
			tm[tag] = Target{App: &DeepLink{
				AppName:    raw.Object.AppName,
				AppPath:    raw.Object.AppPath,
				AppPackage: raw.Object.AppPackage,
				Fallback:   raw.Object.Fallback,
			}}
		}
		routes[r.Path] = tm
	}
	return routes, nil
}

// Lookup returns the targets configured for path.
func (e *Engine) Lookup(path string) (TargetMap, bool) {
	s, _ := e.snap.Load()
	tm, ok := s.routes[path]
	return tm, ok
}

// Routes reports how many paths the current snapshot serves.
func (e *Engine) Routes() int {
	s, _ := e.snap.Load()
	return len(s.routes)
}

// Match resolves a request against the current snapshot.
func (e *Engine) Match(_ context.Context, req MatchRequest) Action {
	targets, ok := e.Lookup(req.Path)
	if !ok {
		log.Debug().Str("path", req.Path).Msg("no targets for path")
		return Action{Kind: ActionEmpty, Reason: ReasonNoRoute}
	}

	tags := e.detector.Detect(req.UserAgent)
	a := Resolve(targets, tags)

	// every tag ahead of the winner was a non-match
	for _, tag := range tags {
		if tag == a.Platform {
			break
		}
		log.Debug().Str("path", req.Path).Str("platform", string(tag)).Msg("no target for platform")
	}
	log.Info().
		Str("path", req.Path).
		Interface("platforms", tags).
		Str("action", a.Kind.String()).
		Str("platform", string(a.Platform)).
		Str("reason", a.Reason).
		Msg("resolved")
	return a
}
