package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/server"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	baseHandler := logging.Setup(cfg.AppEnv)
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	form, err := loadFormSchema(cfg.FormSchemaPath)
	if err != nil {
		return fmt.Errorf("failed to load form schema: %w", err)
	}

	var regStore store.RegistrationStore
	if cfg.UsesDatabase() {
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				slog.Error("database close error", "error", err)
			}
		}()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler := logging.WithDatabase(baseHandler, db)
		defer pgLogHandler.Stop()
		logging.StartCleanup(ctx, db, cfg.LogRetention)

		regStore = store.NewGormStore(db)
	} else {
		slog.Warn("using in-memory registration store; data is lost on restart")
		regStore = store.NewMemoryStore()
	}

	otpStore, closeOTP, err := newOTPStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeOTP()

	if cfg.VerificationSecret == "" {
		slog.Warn("VERIFICATION_SECRET not set; using a random key, verification tokens will not survive a restart")
	}
	verifier, err := services.NewVerifier(cfg.VerificationSecret, cfg.VerificationTokenTTL)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := server.New(cfg, server.Deps{
		Registrations: services.NewRegistrationService(regStore, cfg, m, verifier),
		OTP:           services.NewOTPService(otpStore, verifier, m, cfg.OTPTTL, cfg.OTPDemoMode),
		OTPStore:      otpStore,
		FormSchema:    form,
		Gatherer:      prometheus.DefaultGatherer,
		Sentry:        sentryEnabled,
		AccessLog:     true,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "otp_demo_mode", cfg.OTPDemoMode)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

// newOTPStore uses Redis when REDIS_URL is set and process memory otherwise.
func newOTPStore(ctx context.Context, cfg *config.Config) (store.OTPStore, func(), error) {
	if cfg.RedisURL == "" {
		return store.NewMemoryOTPStore(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("redis connected", "addr", opts.Addr)

	return store.NewRedisOTPStore(client), func() {
		if err := client.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}, nil
}
