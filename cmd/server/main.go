package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/api"
	dbfs "github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/db"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/config"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/db"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/intents"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/arcgis"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)
	arcgis.SetLogger(logger)

	logger.Info("starting server", slog.String("version", version), slog.String("buildTime", buildTime))

	ctx := context.Background()

	// Open database connection
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}

	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// File-backed stores
	blobs, err := blob.NewStore(filepath.Join(cfg.DataDir, "blobs"))
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	jobs := store.NewJobStore(cfg.DataDir)
	tickets := store.NewTicketStore(cfg.DataDir)
	orders := store.NewWorkOrderStore(cfg.DataDir)
	documents := store.NewDocumentStore(cfg.DataDir)

	// Engagement service with a durable intent log, plus the replay worker
	// that finishes interrupted document returns.
	intentRepo := intents.NewRepository(database)
	svc := engagement.NewService(jobs, tickets, orders, documents, blobs, intentRepo, cfg.StorageTimeout, logger)
	worker := intents.NewWorker(intentRepo, func(ctx context.Context, ticketID string) error {
		_, err := svc.ReturnDocumentToJob(ctx, ticketID)
		return err
	}, logger, cfg.WorkerCount)
	worker.Start(ctx)

	// Spatial portal client; the server still runs without it.
	var gis *arcgis.Client
	if cfg.ArcGIS.GeocodeURL != "" && cfg.ArcGIS.ParcelURL != "" {
		gis, err = arcgis.NewDefaultClient(cfg.ArcGIS)
		if err != nil {
			logger.Warn("gis client disabled", slog.Any("err", err))
			gis = nil
		}
	}

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		DB:        database,
		Service:   svc,
		Tickets:   tickets,
		Orders:    orders,
		Jobs:      jobs,
		Documents: documents,
		Blobs:     blobs,
		GIS:       gis,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	worker.Stop()

	// Close database connection
	if err := database.Close(); err != nil {
		logger.Error("closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}
