// Skillboard — training management backend: form intake plus the Skills
// and Studio portal APIs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skillboard/skillboard/internal/access"
	"github.com/skillboard/skillboard/internal/api"
	"github.com/skillboard/skillboard/internal/api/middleware"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/config"
	"github.com/skillboard/skillboard/internal/db"
	"github.com/skillboard/skillboard/internal/health"
	"github.com/skillboard/skillboard/internal/identity"
	"github.com/skillboard/skillboard/internal/ingest"
	"github.com/skillboard/skillboard/internal/mail"
	"github.com/skillboard/skillboard/internal/observability"
	"github.com/skillboard/skillboard/internal/store"
	"github.com/skillboard/skillboard/internal/version"
	"github.com/skillboard/skillboard/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability -------------------------------------------------------
	obs, log, err := observability.New(ctx, &observability.Config{
		ServiceName:    "skillboard",
		ServiceVersion: version.Version,
		LogLevel:       cfg.Log.Level,
		LogFormat:      cfg.Log.Format,
		OTLPEndpoint:   cfg.OTel.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer obs.Shutdown(context.Background())
	slog.SetDefault(log)
	log.Info("starting skillboard", "version", version.Version, "commit", version.Commit)

	// --- Database ------------------------------------------------------------
	// A missing DB configuration is not fatal: the process serves anyway and
	// database-backed handlers report the missing variables per request.
	pool, gormDB, err := db.New(ctx, &cfg.DB)
	switch {
	case err == nil:
		defer pool.Close()
		log.Info("database ready", "host", cfg.DB.Host, "name", cfg.DB.Name)
	case apperr.KindOf(err) == apperr.ConfigMissing:
		log.Warn("database unconfigured, DB-backed routes will fail", "missing", cfg.DB.Missing())
	default:
		return fmt.Errorf("open db: %w", err)
	}

	var (
		st     store.Store
		ingSvc *ingest.Service
		pinger health.Pinger
		wq     *worker.Client
		mailer = mail.New(cfg.Mail.PublicKey, cfg.Mail.PrivateKey, cfg.Mail.From, log)
	)

	if pool != nil {
		caps, err := db.Probe(ctx, pool)
		if err != nil {
			return fmt.Errorf("probe schema capabilities: %w", err)
		}
		st = store.NewSQLStore(pool, caps)
		ingSvc = ingest.NewService(gormDB, nil)
		pinger = db.NewPinger(pool)
		prometheus.MustRegister(db.NewPoolCollector(pool))

		// --- Mail queue ------------------------------------------------------
		if err := worker.MigrateRiver(ctx, pool); err != nil {
			return fmt.Errorf("river migrations: %w", err)
		}
		wq, err = worker.New(pool, mailer, cfg.Worker.Concurrency, log)
		if err != nil {
			return fmt.Errorf("create worker: %w", err)
		}
		if err := wq.Start(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := wq.Stop(stopCtx); err != nil {
				log.Error("worker stop error", "err", err)
			}
		}()
	}

	// --- HTTP routes ---------------------------------------------------------
	server := api.NewServer(api.Deps{
		Store:  st,
		Ingest: ingSvc,
		Skills: api.PortalDeps{
			Verifier: identity.NewVerifier(cfg.Skills),
			Resolver: access.NewResolver(st, store.PortalSkills, cfg.Skills.SuperAdmins, log),
		},
		Studio: api.PortalDeps{
			Verifier: identity.NewVerifier(cfg.Studio),
			Resolver: access.NewResolver(st, store.PortalStudio, cfg.Studio.SuperAdmins, log),
		},
		Dispatcher: worker.NewDispatcher(wq, log),
		AlertDest:  cfg.Mail.AlertDest,
		MissingDB:  cfg.DB.Missing(),
	}, log)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, server, health.New(pinger))
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      middleware.CORS(cfg.CORS.Origins)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Start server --------------------------------------------------------
	log.Info("http server listening", "addr", srv.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}
