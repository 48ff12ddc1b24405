package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"guesthouse-occupancy-backend/config"
	"guesthouse-occupancy-backend/internal/api"
	"guesthouse-occupancy-backend/internal/db"
	"guesthouse-occupancy-backend/internal/metrics"
	"guesthouse-occupancy-backend/internal/model"
	"guesthouse-occupancy-backend/internal/mw"
	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/reconciler"
	"guesthouse-occupancy-backend/internal/store"
	"guesthouse-occupancy-backend/internal/timefmt"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "guesthouse ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc, err := time.LoadLocation(cfg.Facility.Timezone)
	if err != nil {
		logger.Fatalf("invalid facility timezone %q: %v", cfg.Facility.Timezone, err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized successfully (driver %s)", cfg.Database.Driver)

	appStore := store.NewGormStore(gormDB, cfg.Server.CacheTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := occupancy.NewService(appStore, metrics.New(reg), occupancy.Options{
		Locale:       timefmt.ParseLocale(cfg.Facility.Locale),
		Location:     loc,
		DefaultTitle: cfg.Facility.Title,
	})

	// Create a context that is cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := svc.Bootstrap(ctx, model.FacilitySettings{
		Title:                    cfg.Facility.Title,
		Capacity:                 cfg.Facility.Capacity,
		EachPersonTime:           cfg.Facility.EachPersonTime,
		SettlementThresholdHours: cfg.Facility.SettlementThresholdHours,
	})
	if err != nil {
		logger.Fatalf("failed to bootstrap facility settings: %v", err)
	}
	logger.Printf("facility %q ready: capacity %d, settlement threshold %dh",
		settings.Title, settings.Capacity, settings.SettlementThresholdHours)

	if corrected, err := svc.Reconcile(ctx); err != nil {
		logger.Printf("startup reconcile failed: %v", err)
	} else if corrected {
		logger.Println("active guest counter corrected at startup")
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, 10*time.Minute)
	router := api.NewRouter(svc, appStore, api.RouterOptions{
		RateLimiter: limiter,
		Cache:       mw.NewResponseCache(cfg.Server.CacheTTL),
		Gatherer:    reg,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		reconciler.NewService(cfg.Reconciler, svc).Run(gctx)
		return nil
	})

	g.Go(func() error {
		limiter.RunSweeper(gctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		// Block until a signal is received or a sibling fails.
		<-gctx.Done()
		logger.Println("Shutdown signal received, stopping services...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server Shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("%v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Println("Server gracefully stopped")
}
