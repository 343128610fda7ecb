package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/delivery/consumer"
	"golang-market-oracle/internal/ingestor/repository"
	"golang-market-oracle/internal/ingestor/service"
	"golang-market-oracle/pkg/common"
	"golang-market-oracle/pkg/logger"
	"golang-market-oracle/pkg/postgres"
	"golang-market-oracle/pkg/redis"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the ingestion service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Ingestion Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamNewsIngestion, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	articleRepo := repository.NewNewsArticleRepository(db.DB)

	var embeddingRepo repository.EmbeddingRepository
	switch cfg.AI.Provider {
	case "gemini":
		embeddingRepo = repository.NewGeminiEmbeddingRepository(cfg, appLogger)
	case "openai":
		embeddingRepo = repository.NewOpenAIEmbeddingRepository(cfg, appLogger)
	default:
		appLogger.Fatal("Invalid AI provider specified in config", logger.StringField("provider", cfg.AI.Provider))
	}
	vectorRepo := repository.NewPineconeRepository(cfg, appLogger)

	// Initialize services
	ingestorSvc := service.NewIngestorService(cfg, appLogger, redisClient.Client, articleRepo, embeddingRepo, vectorRepo)
	schedulerSvc := service.NewSchedulerService(cfg, appLogger, redisClient.Client)

	// Start the feed scheduler and the Redis consumer
	if err := schedulerSvc.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start feed scheduler", logger.ErrorField(err))
	}
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, ingestorSvc, appLogger)
	redisConsumer.Start(ctx)

	appLogger.Info("Ingestion service started. Waiting for feed tasks...")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down ingestion service...")
	cancel()
	schedulerSvc.Stop()
	redisConsumer.Stop()
	appLogger.Info("Ingestion service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "ingestion-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-ingestion.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing ingestion-service CLI: %s\n", err)
		os.Exit(1)
	}
}
