package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Arcilios/Take-a-Bike/internal/config"
	"github.com/Arcilios/Take-a-Bike/internal/handlers"
	"github.com/Arcilios/Take-a-Bike/internal/loader"
	"github.com/Arcilios/Take-a-Bike/internal/logging"
	"github.com/Arcilios/Take-a-Bike/internal/metrics"
	"github.com/Arcilios/Take-a-Bike/internal/repository"
	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

func main() {
	// ═══════════════════════════════════════════════════════
	// PHASE 1: Configuration
	// ═══════════════════════════════════════════════════════
	// Load base .env first, then .env.local from the repository root
	config.LoadEnvFiles("../..")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg, "traffic-api")
	slog.SetDefault(logger)

	// ═══════════════════════════════════════════════════════
	// PHASE 2: Load Dataset
	// ═══════════════════════════════════════════════════════
	src, closeSrc, err := openSource(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open data source", "source", cfg.DataSource, "error", err)
		os.Exit(1)
	}
	defer closeSrc()

	engine, err := loadEngine(src, cfg, logger)
	if err != nil {
		logger.Error("failed to load dataset", "source", cfg.DataSource, "error", err)
		os.Exit(1)
	}

	display, err := traffic.NewDisplay(engine)
	if err != nil {
		logger.Error("failed to initialize display", "error", err)
		os.Exit(1)
	}

	// ═══════════════════════════════════════════════════════
	// PHASE 3: Router
	// ═══════════════════════════════════════════════════════
	latency := metrics.NewLatencyTracker()
	trafficHandler := handlers.NewTrafficHandler(display, latency, cfg.ResponseCacheSize, logger)
	healthHandler := handlers.NewHealthHandler(display, latency)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", healthHandler.GetHealthz)
	trafficHandler.Routes(r)

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting",
			"port", cfg.Port,
			"source", cfg.DataSource,
			"stations", len(engine.Dataset().Stations),
			"trips", engine.Dataset().TripCount(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// ═══════════════════════════════════════════════════════
	// PHASE 4: Reload on SIGHUP, shut down on SIGINT/SIGTERM
	// ═══════════════════════════════════════════════════════
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for s := range sig {
		if s != syscall.SIGHUP {
			break
		}
		logger.Info("reloading dataset", "source", cfg.DataSource)
		next, err := loadEngine(src, cfg, logger)
		if err != nil {
			// Keep serving the previous dataset
			logger.Error("reload failed", "error", err)
			continue
		}
		if _, err := display.Reload(next); err != nil {
			logger.Error("reload failed", "error", err)
		}
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// openSource opens the configured dataset source. The returned func releases it.
func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.DatasetSource, func(), error) {
	switch cfg.DataSource {
	case config.SourcePostgres:
		store, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("connected to PostgreSQL")
		return store, store.Close, nil

	case config.SourceFiles:
		logger.Info("reading dataset files", "stations", cfg.StationsPath, "trips", cfg.TripsPath)
		return &loader.FileSource{
			StationsPath: cfg.StationsPath,
			TripsPath:    cfg.TripsPath,
			Location:     cfg.Location,
			Logger:       logger,
		}, func() {}, nil

	default:
		store, err := repository.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		// An empty database serves all-zero traffic until trips are imported
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

func loadEngine(src repository.DatasetSource, cfg *config.Config, logger *slog.Logger) (*traffic.Engine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	ds, err := repository.LoadDataset(ctx, src, logger)
	if err != nil {
		return nil, err
	}
	return traffic.NewEngine(ds, logger), nil
}
