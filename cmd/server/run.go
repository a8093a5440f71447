package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/go-sqlite-browser/auth"
	"github.com/jrsteele09/go-sqlite-browser/databases"
	"github.com/jrsteele09/go-sqlite-browser/internal/config"
	"github.com/jrsteele09/go-sqlite-browser/internal/logging"
	"github.com/jrsteele09/go-sqlite-browser/server"
	"github.com/jrsteele09/go-sqlite-browser/sessions"
	"github.com/jrsteele09/go-sqlite-browser/sessions/redisstore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	purgeInterval   = time.Minute
)

func run(ctx context.Context, folder string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg = cfg.WithDataFolder(folder)

	if err := logging.Setup(os.Stderr, cfg.GetEnv(), cfg.LogLevel); err != nil {
		return err
	}
	if cfg.IsDev() {
		displayAppname(cfg.GetAppName())
	}
	if cfg.Security.SessionSecretGenerated {
		log.Warn().Msg("SESSION_SECRET is not set; using a random key, sessions end when the process restarts")
	}

	catalog, err := databases.NewCatalog(cfg.GetDataFolder())
	if err != nil {
		return err
	}
	provider, err := auth.NewProvider(ctx, cfg.OAuth)
	if err != nil {
		return err
	}
	store, closeStore, err := newSessionStore(ctx, cfg.Security)
	if err != nil {
		return err
	}
	defer closeStore()

	cookies, err := sessions.NewCookieCodec(cfg.Security.SessionSecret, cfg.Security.SessionTTL, cfg.Security.CookieDomain)
	if err != nil {
		return err
	}

	app := server.New(cfg, auth.NewGate(provider, store, cookies, cfg.OAuth.PostLoginURL), catalog)
	defer app.Close()

	servers := []*http.Server{{
		Addr:              cfg.GetPort(),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET "+server.RouteMetrics, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	log.Info().
		Str("root", catalog.Root()).
		Str("session_store", cfg.Security.SessionStore).
		Str("env", cfg.GetEnv()).
		Msg("Starting SQLite browser")

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error { return listenAndServe(srv) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(servers)
	})
	return g.Wait()
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %s: %w", srv.Addr, err)
	}
	return nil
}

func shutdown(servers []*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server.Shutdown %s: %w", srv.Addr, err))
		}
	}
	return errors.Join(errs...)
}

// newSessionStore builds the configured store and a func releasing it
func newSessionStore(ctx context.Context, sec config.Security) (sessions.Store, func(), error) {
	switch sec.SessionStore {
	case config.SessionStoreRedis:
		client, err := redisstore.Connect(ctx, sec.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, sec.SessionTTL), func() { _ = client.Close() }, nil
	default:
		store := sessions.NewInMemoryStore(sec.SessionTTL, sessions.WithPurgeInterval(purgeInterval))
		return store, func() { _ = store.Close() }, nil
	}
}
