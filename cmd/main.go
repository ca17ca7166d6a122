package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aleixjf/ms-orders-management-sub000/internal/consumer"
	"github.com/aleixjf/ms-orders-management-sub000/internal/events"
	"github.com/aleixjf/ms-orders-management-sub000/internal/handler"
	"github.com/aleixjf/ms-orders-management-sub000/internal/repository"
	"github.com/aleixjf/ms-orders-management-sub000/internal/service"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/config"
	pkgkafka "github.com/aleixjf/ms-orders-management-sub000/pkg/kafka"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/metrics"
	"github.com/aleixjf/ms-orders-management-sub000/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("kafka_group_id", cfg.KafkaGroupID),
		zap.String("order_table", cfg.OrderTableName))

	// Initialize components
	dynamoClient, err := repository.NewDynamoDBClient(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	kafkaClient := pkgkafka.NewClient(cfg.KafkaBrokers)
	writer := kafkaClient.NewWriter()
	defer writer.Close()

	pipelineMetrics := metrics.NewPipelineMetrics("orders")

	orderRepo := repository.NewDynamoOrderRepository(dynamoClient, cfg.OrderTableName)
	publisher := events.NewKafkaPublisher(writer, pipelineMetrics, logger)
	orderService := service.NewOrderService(orderRepo, publisher, logger)
	orderHandler := handler.NewOrderHandler(orderService, cfg.RequestTimeout, logger)

	// Inbound message pipeline
	pipeline := consumer.NewPipeline(orderService, publisher, pipelineMetrics, logger)
	group := consumer.NewGroup(pipeline, func(topic string) consumer.Reader {
		return kafkaClient.NewReader(topic, cfg.KafkaGroupID)
	}, logger)

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	group.Start(consumerCtx)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	orderHandler.Register(v1)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "orders-management",
			"port":    cfg.Port,
		})
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	stopConsumers()
	group.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Service stopped")
}
