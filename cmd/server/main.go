package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/checkin/internal/auth"
	"github.com/mmynk/checkin/internal/config"
	"github.com/mmynk/checkin/internal/metrics"
	"github.com/mmynk/checkin/internal/service"
	"github.com/mmynk/checkin/internal/storage/memory"
	"github.com/mmynk/checkin/pkg/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := memory.New()
	if err := seed(ctx, cfg, store); err != nil {
		return err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(func() float64 { return float64(store.Len()) })
	}

	router := service.NewRouter(service.Deps{
		Visitors:       store,
		Authenticator:  auth.NewPasswordAuthenticator(store, cfg.Auth.HashCost()),
		Tokens:         auth.NewJWTManager(secret, cfg.Auth.TokenTTL),
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Path,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting",
			"address", cfg.Addr(),
			"version", service.APIVersion,
			"demo", cfg.Demo,
			"metrics", cfg.Metrics.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// seed loads the admin account, plus the sample visitors in demo mode.
func seed(ctx context.Context, cfg *config.Config, store *memory.Store) error {
	if cfg.Demo && cfg.Auth.AdminEmail == "" {
		if err := store.SeedDemo(ctx, cfg.Auth.BcryptCost); err != nil {
			return err
		}
		slog.Warn("Demo mode: seeded sample visitors and the demo admin account", "email", memory.DemoAdminEmail)
		return nil
	}

	if err := store.SeedAdmin(1, cfg.Auth.AdminName, cfg.Auth.AdminEmail,
		cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash, cfg.Auth.BcryptCost); err != nil {
		return err
	}
	slog.Info("Admin account loaded", "email", cfg.Auth.AdminEmail)

	if cfg.Demo {
		for _, v := range memory.DemoVisitors() {
			v := v
			if err := store.CreateVisitor(ctx, &v); err != nil {
				return err
			}
		}
		slog.Warn("Demo mode: seeded sample visitors")
	}
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
