package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/verdant-labs/greenledger/pkg/api"
	"github.com/verdant-labs/greenledger/pkg/auth"
	"github.com/verdant-labs/greenledger/pkg/config"
	"github.com/verdant-labs/greenledger/pkg/engine"
	"github.com/verdant-labs/greenledger/pkg/observability"
	"github.com/verdant-labs/greenledger/pkg/store"
	"github.com/verdant-labs/greenledger/pkg/token"
)

func runServe(stderr io.Writer) int {
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := serve(cfg, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		var err error
		profile, err = config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return err
		}
	}

	// Persistence: snapshot store plus a durable audit sink.
	var (
		snaps store.Snapshotter
		sink  store.AuditSink
		db    *sql.DB
	)
	switch cfg.DBDriver {
	case "sqlite":
		var err error
		db, err = sql.Open("sqlite", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", cfg.DatabaseURL, err)
		}
		defer db.Close()
		if snaps, err = store.NewSQLiteSnapshotter(db); err != nil {
			return err
		}
		if sink, err = store.NewSQLiteAuditStore(db); err != nil {
			return err
		}
	case "postgres":
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if snaps, err = store.NewPostgresSnapshotter(db); err != nil {
			return err
		}
		if sink, err = store.NewPostgresAuditStore(db); err != nil {
			return err
		}
	case "memory":
		snaps = store.NewMemorySnapshotter()
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	// Resume the audit chain where the previous process left it so
	// sequences and hash links continue across restarts.
	auditLog := store.NewAuditLog()
	if sink != nil {
		var err error
		auditLog, err = store.ResumeAuditLog(ctx, sink)
		if err != nil {
			return fmt.Errorf("resume audit chain: %w", err)
		}
	}

	meta := token.Metadata{
		Name:     profile.Token.Name,
		Symbol:   profile.Token.Symbol,
		Decimals: profile.Token.Decimals,
		URI:      profile.Token.URI,
	}
	eng, err := store.LoadEngine(ctx, snaps, engine.Config{Owner: cfg.Owner, Token: meta})
	if err != nil {
		return fmt.Errorf("load engine: %w", err)
	}
	logger.Info("engine ready",
		"owner", cfg.Owner,
		"token", meta.Symbol,
		"total_actions", eng.GetTotalActions(),
		"total_supply", eng.GetTotalSupply())

	recorder := store.NewRecorder(auditLog, sink, snaps, logger)
	recorder.Attach(eng)

	var opts []api.Option
	if cfg.RedisAddr != "" {
		limiter := api.NewRedisLimiter(cfg.RedisAddr, profile.RateLimit.PerMinute, profile.RateLimit.Burst)
		defer limiter.Close()
		opts = append(opts, api.WithLimiter(limiter))
	} else {
		limiter := api.NewLocalLimiter(profile.RateLimit.PerMinute, profile.RateLimit.Burst)
		defer limiter.Close()
		opts = append(opts, api.WithLimiter(limiter))
	}
	if cfg.JWTSecret != "" {
		opts = append(opts, api.WithValidator(auth.NewValidator(cfg.JWTSecret)))
	} else {
		logger.Warn("JWT_SECRET not set, accepting X-Principal header (development only)")
	}
	if cfg.OTLP != "" {
		provider, err := observability.New(ctx, &observability.Config{
			ServiceName:    "greenledger",
			ServiceVersion: version,
			OTLPEndpoint:   cfg.OTLP,
			Enabled:        true,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
		opts = append(opts, api.WithTelemetry(provider))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(eng, logger, opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
