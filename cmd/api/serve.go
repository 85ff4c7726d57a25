package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/logging"
	"docvault/internal/otel"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// loadConfig reads the environment and applies the logging settings.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logging.SetLocation(cfg.Location())
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	logger := logging.New("docvault")
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	srv, err := newServer(serverDeps{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		store:    st,
		blobs:    blobs,
		verifier: verifier,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("server_starting",
			zap.String("addr", addr),
			zap.String("store_driver", cfg.StoreDriver),
			zap.String("blob_driver", cfg.Blob.Driver),
		)
		errCh <- srv.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	if err := srv.shutdown(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
