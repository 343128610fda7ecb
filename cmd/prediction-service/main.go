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

	"golang-market-oracle/internal/predictor/config"
	delivery "golang-market-oracle/internal/predictor/delivery/http"
	"golang-market-oracle/internal/predictor/repository"
	"golang-market-oracle/internal/predictor/service"
	"golang-market-oracle/pkg/logger"
	"golang-market-oracle/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the prediction service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	appLogger.Info("Starting Prediction Service", logger.Field("name", cfg.App.Name))

	// Initialize AI provider
	var aiRepo repository.AIRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		repo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", logger.ErrorField(err))
		}
		aiRepo = repo
	case "openai":
		aiRepo = repository.NewOpenAIRepository(cfg, appLogger)
	default:
		appLogger.Fatal("Invalid AI provider specified in config", logger.StringField("provider", cfg.AI.Provider))
	}

	// Initialize market data providers
	kalshiRepo, err := repository.NewKalshiRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Kalshi repository", logger.ErrorField(err))
	}
	polymarketRepo := repository.NewPolymarketRepository(cfg, appLogger)
	snapshotSvc := service.NewSnapshotService(cfg, appLogger, kalshiRepo, polymarketRepo)

	// Initialize context retrieval (optional)
	var retriever service.ContextRetriever
	if cfg.Pinecone.IndexURL != "" {
		vectorRepo := repository.NewPineconeRepository(cfg, appLogger)
		retriever = service.NewContextRetriever(cfg, appLogger, aiRepo, vectorRepo)
	} else {
		appLogger.Warn("No vector index configured, deep mode runs without historical context")
	}

	// Initialize Telegram notifier (optional)
	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize services
	tracker := service.NewPerformanceTracker(appLogger)
	councilSvc, err := service.NewCouncilService(cfg, appLogger, aiRepo, snapshotSvc, retriever, tracker, nil)
	if err != nil {
		appLogger.Fatal("Failed to initialize council service", logger.ErrorField(err))
	}
	predictionSvc := service.NewPredictionService(cfg, appLogger, aiRepo, snapshotSvc, retriever, councilSvc, notifier)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	predictHandler := delivery.NewPredictHandler(predictionSvc, appLogger)
	predictHandler.RegisterRoutes(apiV1.Group("/predict"))

	marketsHandler := delivery.NewMarketsHandler(snapshotSvc, appLogger)
	marketsHandler.RegisterRoutes(apiV1.Group("/markets"))

	performanceHandler := delivery.NewPerformanceHandler(tracker, appLogger)
	performanceHandler.RegisterRoutes(apiV1.Group("/performance"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "prediction-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-prediction.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing prediction-service CLI: %s\n", err)
		os.Exit(1)
	}
}
