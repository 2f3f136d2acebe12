package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/dynrec/internal/config"
	"github.com/groblegark/dynrec/internal/events"
	"github.com/groblegark/dynrec/internal/export"
	"github.com/groblegark/dynrec/internal/query"
	"github.com/groblegark/dynrec/internal/record"
	"github.com/groblegark/dynrec/internal/schema"
	"github.com/groblegark/dynrec/internal/server"
	"github.com/groblegark/dynrec/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dynrec HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (DYNREC_NATS_URL not set)")
		}

		// Assemble the service layers.
		schemas := schema.NewManager(store, publisher)
		compiler := query.NewCompiler(query.Guardrails{
			MaxPageSize:    cfg.MaxPageSize,
			MaxFilterDepth: cfg.MaxFilterDepth,
			MaxRuleCount:   cfg.MaxRuleCount,
		})
		records := record.NewService(store, schemas, compiler, publisher)

		// Optional S3 export destination.
		var exporter *export.Exporter
		if cfg.ExportS3Bucket != "" {
			dest, err := export.NewS3Destination(
				cmd.Context(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				publisher.Close()
				store.Close()
				return err
			}
			exporter = export.NewExporter(store, dest, cfg.ExportS3KeyPrefix)
			logger.Info("export enabled", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3KeyPrefix)
		}

		srv := server.NewServer(schemas, records, exporter)

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("dynrec server started",
			"http_addr", cfg.HTTPAddr,
			"auth", cfg.AuthToken != "",
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
