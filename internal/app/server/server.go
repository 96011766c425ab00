package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Abdulelahsg/dynamic-links/internal/api"
	"github.com/Abdulelahsg/dynamic-links/internal/config"
	"github.com/Abdulelahsg/dynamic-links/internal/engine"
	"github.com/Abdulelahsg/dynamic-links/internal/listener"
	"github.com/Abdulelahsg/dynamic-links/internal/platform"
	"github.com/Abdulelahsg/dynamic-links/internal/static"
	"github.com/Abdulelahsg/dynamic-links/internal/storage"
)

// source is the configured route source plus its optional change watcher.
type source struct {
	engine.RouteSource
	watch  func(ctx context.Context, eng *engine.Engine)
	closer io.Closer
}

func openSource(ctx context.Context, cfg config.Config) (source, error) {
	switch cfg.Routes.Source {
	case config.SourcePostgres:
		st, err := storage.New(ctx, cfg)
		if err != nil {
			return source{}, err
		}
		return source{
			RouteSource: st,
			watch: func(ctx context.Context, eng *engine.Engine) {
				listener.ListenAndRefresh(ctx, st, eng, cfg.Listener.Channel, cfg.Backoff())
			},
			closer: closerFunc(func() error { st.Close(); return nil }),
		}, nil

	case config.SourceRedis:
		rs, err := storage.OpenRedis(ctx, cfg.Redis.URL, cfg.Routes.RedisKey)
		if err != nil {
			return source{}, err
		}
		return source{
			RouteSource: rs,
			watch: func(ctx context.Context, eng *engine.Engine) {
				listener.SubscribeAndRefresh(ctx, rs.Client(), rs, eng, cfg.Redis.Channel)
			},
			closer: rs,
		}, nil

	case config.SourceInline:
		return source{RouteSource: storage.NewInlineStore(cfg.Routes.Inline)}, nil

	default:
		return source{RouteSource: storage.NewFileStore(cfg.Routes.File)}, nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Run wires the route source, engine and HTTP server, and blocks until
// SIGINT/SIGTERM. Configuration errors (including an empty route table) are fatal.
func Run(cfg config.Config) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Routes
	src, err := openSource(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Routes.Source).Msg("init route source")
	}
	if src.closer != nil {
		defer src.closer.Close()
	}

	// Engine
	eng := engine.NewEngine(platform.NewDetector(cfg.Routes.IncludeDefaultTag))
	if err := eng.BuildSnapshot(rootCtx, src); err != nil {
		log.Fatal().Err(err).Msg("initial snapshot build")
	}

	// HTTP
	h := api.NewLinkHandler(eng, static.New(cfg.Static.Template))
	r := api.Router(h)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Route change watcher (LISTEN/NOTIFY or SUBSCRIBE)
	if src.watch != nil {
		go src.watch(rootCtx, eng)
	}

	// Server goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("source", cfg.Routes.Source).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// Wait for signal
	waitForSignal()
	log.Info().Msg("shutdown...")

	// Graceful shutdown
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	cancel() // stop background goroutines
	_ = srv.Shutdown(shCtx)
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
