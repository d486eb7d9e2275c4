package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"outlay/internal/amqp"
	"outlay/internal/config"
	"outlay/internal/export"
	"outlay/internal/export/google"
	api "outlay/internal/http"
	applog "outlay/internal/log"
	"outlay/internal/services"
	"outlay/internal/storage"
)

func main() {
	// Load .env file if present (ignore errors in production)
	_ = godotenv.Load()

	applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.SQLiteDBPath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event publishing is optional; the API works without a broker.
	var events services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to connect to AMQP, events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
			slog.Info("AMQP event publishing enabled",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	// Report export is optional; without it the endpoint responds 503.
	var exporter export.ReportWriter
	if cfg.ExportEnabled() {
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			slog.Error("Failed to initialize Sheets exporter, export disabled", "error", err)
		} else {
			exporter = client
			slog.Info("Google Sheets export enabled", "sheet", cfg.GoogleSheetName)
		}
	}

	projects := services.NewProjectService(repo, repo, repo, events)
	expenses := services.NewExpenseService(repo, repo, events)
	server := api.NewServer(cfg, repo, projects, expenses, exporter)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := repo.DeleteExpiredSessions(gctx)
				if err != nil {
					slog.Error("Session cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("Expired sessions removed", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
