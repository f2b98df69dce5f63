package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3gate/internal/auth"
	"github.com/koustreak/s3gate/internal/filestore/minio"
	"github.com/koustreak/s3gate/internal/gateway"
	"github.com/koustreak/s3gate/internal/logger"
	"github.com/koustreak/s3gate/internal/metrics"
	"github.com/koustreak/s3gate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the s3gate HTTP server.

The s3 section of the configuration is applied on a best-effort basis: when
it is incomplete or the backend is unreachable the server still starts and
waits for a configuration update through PUT /api/config.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", ":8080", "listen address (env: S3GATE_SERVER_ADDRESS)")
	serveCmd.Flags().String("endpoint", "", "object store endpoint (env: S3GATE_S3_ENDPOINT)")
	serveCmd.Flags().String("bucket", "", "bucket to serve (env: S3GATE_S3_BUCKET)")
	serveCmd.Flags().String("region", "", "bucket region (env: S3GATE_S3_REGION)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(&cfg.Log).With().Str("service", "s3gate").Str("version", version).Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.Secret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return err
		}
		cfg.Auth.Secret = secret
		log.Warn("auth.jwt_secret is not set; using a random secret, tokens will not survive a restart")
	}
	if cfg.Auth.PasswordHash == "" && cfg.Auth.Password == "admin" {
		log.Warn("using the default admin password; set auth.password_hash for production")
	}

	creds, err := auth.NewCredentialStore(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	var (
		m      *metrics.Metrics
		gwOpts []gateway.Option
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		gwOpts = append(gwOpts, gateway.WithObserver(metrics.NewGatewayMetrics(m.Registry())))
	}

	gw := gateway.New(minio.Dial, log, gwOpts...)
	defer func() { _ = gw.Close() }()
	gw.Bootstrap(ctx, cfg.S3)

	srv := server.New(gw, creds, tokens, log, m, server.Options{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
		MetricsPath:   cfg.Metrics.Path,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoWith("starting server", map[string]interface{}{
			"addr":  cfg.Server.Address,
			"state": gw.State().String(),
		})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.ErrorWith("server shutdown error", err, nil)
		return err
	}
	log.Info("server stopped")
	return nil
}
