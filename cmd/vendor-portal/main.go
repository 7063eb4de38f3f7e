package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vendora/vendora-backend/internal/inventory/consumers"
	"github.com/vendora/vendora-backend/internal/inventory/events"
	"github.com/vendora/vendora-backend/internal/inventory/handler"
	"github.com/vendora/vendora-backend/internal/inventory/repository"
	"github.com/vendora/vendora-backend/internal/inventory/service"
	"github.com/vendora/vendora-backend/pkg/config"
	"github.com/vendora/vendora-backend/pkg/database"
	"github.com/vendora/vendora-backend/pkg/httputil"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("vendor-portal")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("vendor-portal", cfg.Server.Environment)
	log.Info().Msg("starting Vendor Portal")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Repositories
	itemRepo := repository.NewItemRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Services
	inventoryService := service.NewInventoryService(itemRepo, productRepo, publisher, log)
	bulkService := service.NewBulkUpdateService(itemRepo, publisher, log)
	sweepService := service.NewExpirySweepService(itemRepo, publisher, log, cfg.Bulk.Workers)

	scheduler, err := service.NewSweepScheduler(sweepService, &cfg.Sweep, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sweep schedule configuration")
	}

	// Handlers
	itemHandler := handler.NewItemHandler(inventoryService, log)
	productHandler := handler.NewProductHandler(inventoryService, log)
	bulkHandler := handler.NewBulkHandler(bulkService, cfg.Bulk.MaxRows, log)
	sweepHandler := handler.NewSweepHandler(scheduler, log)

	// Catalog event consumer
	productConsumer, err := consumers.NewProductEventConsumer(rmq, productRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create product event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := productConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start product event consumer")
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "vendor-portal",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Auth(&cfg.JWT))

		r.Route("/catalog/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", itemHandler.List)
				r.Post("/", itemHandler.Create)
				r.Get("/{id}", itemHandler.Get)
				r.Put("/{id}", itemHandler.Update)
				r.Delete("/{id}", itemHandler.Deactivate)
				r.Post("/{id}/batches", itemHandler.SubmitBatches)
				r.Get("/{id}/effective-price", itemHandler.EffectivePrice)
			})

			r.Route("/bulk", func(r chi.Router) {
				r.Post("/upload", bulkHandler.Upload)
				r.Post("/rollback/export", bulkHandler.ExportRollback)
				r.Get("/template", bulkHandler.DownloadTemplate)
			})

			r.Post("/sweep/trigger", sweepHandler.Trigger)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the consumer and scheduler
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
