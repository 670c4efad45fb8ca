package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/NoeOnDev/MoodProblemsApp/internal/adapters/analyzer"
	"github.com/NoeOnDev/MoodProblemsApp/internal/audit"
	"github.com/NoeOnDev/MoodProblemsApp/internal/history"
	"github.com/NoeOnDev/MoodProblemsApp/internal/patient"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/auth"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/cache"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/config"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/database"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/events"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/logger"
	"github.com/NoeOnDev/MoodProblemsApp/internal/shared/metrics"
	secmiddleware "github.com/NoeOnDev/MoodProblemsApp/internal/shared/middleware"
)

// App holds the platform's wired components. Optional infrastructure
// (cache, event bus, analyzer adapter) may be nil when disabled or
// unreachable; the API degrades instead of refusing to start.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *database.DB
	cache  *cache.Cache
	bus    *events.Bus

	patientHandler *patient.Handler
	historyHandler *history.Handler
	auditHandler   *audit.Handler

	auditSubscriber *audit.Subscriber
	analyzerAdapter *analyzer.Adapter
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, "platform")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start platform", zap.Error(err))
	}
	defer app.shutdownComponents()

	router := app.routes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("platform listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

// newApp wires the platform components
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: log}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	app.db = db

	if err := database.Migrate(ctx, db.Pool); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if cfg.Redis.Enabled {
		c, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, patient cache disabled", zap.Error(err))
		} else {
			app.cache = c
		}
	}

	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(cfg.EventStore, log)
		if err != nil {
			log.Warn("event store unavailable, audit trail disabled", zap.Error(err))
		} else {
			app.bus = bus
		}
	}

	patientRepo := patient.NewRepository(db.Pool, app.cache)
	historyRepo := history.NewRepository(db.Pool)

	app.patientHandler = patient.NewHandler(patientRepo, app.bus)
	app.historyHandler = history.NewHandler(historyRepo, app.bus)

	if app.bus != nil {
		auditRepo := audit.NewRepository(app.bus.Client())
		if err := auditRepo.Initialize(ctx); err != nil {
			log.Warn("audit chain initialization failed", zap.Error(err))
		} else {
			app.auditHandler = audit.NewHandler(auditRepo)
			app.auditSubscriber = audit.NewSubscriber(auditRepo, app.bus)
			if err := app.auditSubscriber.Start(ctx); err != nil {
				log.Warn("audit subscriber failed to start", zap.Error(err))
			}
		}
	}

	if cfg.Analyzer.Enabled {
		adapter := analyzer.New(cfg.Analyzer, historyRepo, app.bus, log)
		if err := adapter.Start(ctx); err != nil {
			log.Warn("analyzer adapter failed to start", zap.Error(err))
		} else {
			app.analyzerAdapter = adapter
		}
	}

	return app, nil
}

// routes builds the HTTP router
func (app *App) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	limiter := secmiddleware.NewIPRateLimiter(rate.Limit(50), 100)
	r.Use(limiter.Middleware)

	r.Get("/health", app.healthHandler)
	r.Get("/ready", app.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if app.config.Server.Env == "production" {
			r.Use(auth.Middleware(app.config.Auth))
		}

		pr := app.patientHandler.Routes()
		pr.Mount("/{patientID}/history", app.historyHandler.PatientRoutes())
		r.Mount("/patients", pr)

		r.Mount("/history", app.historyHandler.Routes())

		if app.auditHandler != nil {
			r.Mount("/audit", app.auditHandler.Routes())
		}
	})

	return r
}

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyHandler reports per-component readiness. The response is 503
// when the database is down; optional components only annotate it.
func (app *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	status := http.StatusOK

	if err := app.db.Health(r.Context()); err != nil {
		components["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		components["database"] = "up"
	}

	if app.cache != nil {
		if err := app.cache.Health(r.Context()); err != nil {
			components["cache"] = "down"
		} else {
			components["cache"] = "up"
		}
	}

	if app.bus != nil {
		if err := app.bus.Health(); err != nil {
			components["events"] = "down"
		} else {
			components["events"] = "up"
		}
	}

	if app.analyzerAdapter != nil {
		if err := app.analyzerAdapter.Health(r.Context()); err != nil {
			components["analyzer"] = "down"
		} else {
			components["analyzer"] = "up"
		}
	}

	writeJSON(w, status, map[string]any{
		"status":     http.StatusText(status),
		"components": components,
	})
}

// shutdownComponents releases component resources in reverse wiring
// order
func (app *App) shutdownComponents() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.analyzerAdapter != nil {
		if err := app.analyzerAdapter.Stop(ctx); err != nil {
			app.logger.Warn("analyzer adapter stop failed", zap.Error(err))
		}
	}
	if app.bus != nil {
		app.bus.Close()
	}
	if app.cache != nil {
		app.cache.Close()
	}
	if app.db != nil {
		app.db.Close()
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
