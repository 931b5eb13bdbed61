package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dandantas/laundromat/internal/config"
	"github.com/dandantas/laundromat/internal/database"
	"github.com/dandantas/laundromat/internal/handler"
	"github.com/dandantas/laundromat/internal/metrics"
	"github.com/dandantas/laundromat/internal/model"
	"github.com/dandantas/laundromat/internal/notify"
	"github.com/dandantas/laundromat/internal/reservation"
	"github.com/dandantas/laundromat/internal/scheduler"
	"github.com/dandantas/laundromat/internal/webhook"
	"github.com/dandantas/laundromat/internal/worker"
	"github.com/dandantas/laundromat/pkg/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

const version = "1.0.0"

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Laundromat Reservation Service", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the machine catalog
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load machine catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Machine catalog loaded", "machines", catalog.Size())

	// Select the state store
	var (
		store       reservation.StateStore
		db          *database.MongoDB
		historyRepo *database.HistoryRepository
		alertRepo   *database.AlertRepository
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		slog.Warn("Using volatile in-memory state store")
		store = reservation.NewMemoryStore()
	case config.StorageDriverMongo:
		db, err = database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}

		store = database.NewReservationRepository(db)
		historyRepo = database.NewHistoryRepository(db)
		alertRepo = database.NewAlertRepository(db)
	default:
		slog.Error("Unknown storage driver", "driver", cfg.StorageDriver)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()

	// Alert delivery: webhook dispatcher behind a bounded worker pool.
	// With no webhook configured, fired alerts are logged only.
	var dispatcher *webhook.Dispatcher
	if cfg.NotifyWebhookURL != "" {
		dispatcher = webhook.NewDispatcher(cfg.NotifyWebhookURL, cfg.NotifyWebhookTimeout, model.RetryConfig{})
	} else {
		slog.Warn("NOTIFY_WEBHOOK_URL not set, completion warnings will only be logged")
	}

	pool := worker.NewPool(cfg.NotifyWorkers, cfg.NotifyQueueSize, func(jobCtx context.Context, job worker.Job) {
		deliverAlert(jobCtx, job, dispatcher, alertRepo)
	})
	pool.Start()

	// Notification scheduler: timers feed the delivery pool
	lead := time.Duration(cfg.AlertLeadMinutes) * time.Minute
	notifier := notify.NewScheduler(clock, lead, func(payload model.AlertPayload, correlationID string) {
		metrics.AlertsFired.Inc()
		if err := pool.Submit(worker.Job{Payload: payload, CorrelationID: correlationID}); err != nil {
			slog.Error("Failed to queue alert delivery",
				"machine_id", payload.MachineID,
				"correlation_id", correlationID,
				"error", err,
			)
		}
	})

	// The reservation engine
	var history reservation.History
	if historyRepo != nil {
		history = historyRepo
	}
	engine := reservation.NewEngine(catalog, store, notifier, history, clock, cfg.ClaimMinMinutes, cfg.ClaimMaxMinutes)

	// Clean up stale records left over from before this start
	if expired, err := engine.ExpireStale(ctx, uuid.New().String()); err != nil {
		slog.Error("Startup staleness sweep failed", "error", err)
	} else if expired > 0 {
		slog.Info("Startup staleness sweep completed", "expired", expired)
		metrics.ReservationsExpired.Add(float64(expired))
	}

	// Periodic staleness sweep
	sweeper, err := scheduler.NewSweeper(engine, clock, cfg.SweepSchedule, cfg.SweepEnabled)
	if err != nil {
		slog.Error("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start(ctx)

	// Initialize handlers
	machineHandler := handler.NewMachineHandler(engine)
	reservationHandler := handler.NewReservationHandler(engine, catalog, cfg.ClaimStepMinutes)
	historyHandler := handler.NewHistoryHandler(historyOrNil(historyRepo))
	alertHandler := handler.NewAlertHandler(alertsOrNil(alertRepo))
	healthHandler := handler.NewHealthHandler(db, version)

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	router := handler.NewRouter(
		machineHandler,
		reservationHandler,
		historyHandler,
		alertHandler,
		healthHandler,
		corsConfig,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the sweep loop first, then pending alert timers, then drain
	// queued deliveries
	slog.Info("Stopping staleness sweeper...")
	sweeper.Stop(shutdownCtx)

	notifier.CancelAll()
	pool.Stop()

	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Laundromat Reservation Service stopped")
}

// deliverAlert performs one alert delivery and records its outcome.
// Delivery is best-effort: failures are logged and counted, nothing more.
func deliverAlert(ctx context.Context, job worker.Job, dispatcher *webhook.Dispatcher, alertRepo *database.AlertRepository) {
	if dispatcher == nil {
		slog.Info("Completion warning",
			"machine_id", job.Payload.MachineID,
			"title", job.Payload.Title,
			"body", job.Payload.Body,
			"correlation_id", job.CorrelationID,
		)
		return
	}

	alertLog, err := dispatcher.Send(ctx, job.Payload, job.CorrelationID)
	if err != nil {
		metrics.AlertDeliveries.WithLabelValues("failed").Inc()
	} else {
		metrics.AlertDeliveries.WithLabelValues("delivered").Inc()
	}

	if alertRepo != nil && alertLog != nil {
		if err := alertRepo.Create(ctx, alertLog); err != nil {
			slog.Error("Failed to persist alert log",
				"machine_id", job.Payload.MachineID,
				"correlation_id", job.CorrelationID,
				"error", err,
			)
		}
	}
}

// historyOrNil avoids handing the handler a typed nil interface
func historyOrNil(repo *database.HistoryRepository) handler.HistoryLister {
	if repo == nil {
		return nil
	}
	return repo
}

// alertsOrNil avoids handing the handler a typed nil interface
func alertsOrNil(repo *database.AlertRepository) handler.AlertLister {
	if repo == nil {
		return nil
	}
	return repo
}
