package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-order-service/config"
	"crm-order-service/internal/api"
	"crm-order-service/internal/broker"
	"crm-order-service/internal/redisclient"
	"crm-order-service/internal/service"
	"crm-order-service/internal/store"
	"crm-order-service/internal/util"
	"crm-order-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting crm order service")

	tp, err := util.InitTracer(cfg.Invoicing.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicBatch)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	invoicingClient := service.NewInvoicingClient(
		cfg.Invoicing.BaseURL,
		cfg.Invoicing.APIKey,
		cfg.Invoicing.ServiceName,
		time.Duration(cfg.Invoicing.TimeoutSeconds)*time.Second,
	)

	catalogService := service.NewCatalogService(db)
	orderService := service.NewOrderService(db, db, catalogService, eventPublisher)
	batchReader := service.NewBatchReader(db, db, db, redisClient,
		time.Duration(cfg.Business.ProductCacheTTLSeconds)*time.Second)
	orchestrator := service.NewInvoiceOrchestrator(
		db, invoicingClient, eventPublisher,
		cfg.Invoicing.DefaultTemplateID,
		cfg.Invoicing.Currency,
		cfg.Business.VisibilityPollAttempts,
		time.Duration(cfg.Business.VisibilityPollDelayMS)*time.Millisecond,
	)
	lifecycleService := service.NewLifecycleService(db, invoicingClient, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	statusConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicInvoice, cfg.Kafka.ConsumerGroup)
	statusWorker := worker.NewStatusWorker(statusConsumer, orderService)
	go func() {
		if err := statusWorker.Start(workerCtx); err != nil {
			log.Printf("Status worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, batchReader, orchestrator, lifecycleService, catalogService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	statusWorker.Stop()

	log.Println("Server exited")
}
