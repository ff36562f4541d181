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

	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/andreypavlenko/offertrack/internal/config"
	"github.com/andreypavlenko/offertrack/internal/platform/artifacts"
	httpPlatform "github.com/andreypavlenko/offertrack/internal/platform/http"
	"github.com/andreypavlenko/offertrack/internal/platform/logger"
	diagramsvc "github.com/andreypavlenko/offertrack/modules/diagram/service"
	anthropictransport "github.com/andreypavlenko/offertrack/modules/llmclassifier/anthropic"
	llmservice "github.com/andreypavlenko/offertrack/modules/llmclassifier/service"
	"github.com/andreypavlenko/offertrack/modules/messages/adapters"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	pipelinehandler "github.com/andreypavlenko/offertrack/modules/pipeline/handler"
	pipelinesvc "github.com/andreypavlenko/offertrack/modules/pipeline/service"
)

// @title Offertrack API
// @version 1.0
// @description Mines a job-application mailbox into a stage-by-stage funnel: fetch, classify, aggregate, report.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@offertrack.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: cfg.Server.Env}); err != nil {
			appLogger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	appLogger.Info("Starting offertrack API server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	store, err := artifacts.NewLocalStore(cfg.Pipeline.ArtifactsDir)
	var artifactStore artifacts.Store = store
	if cfg.S3.UsesS3() {
		s3Store, s3Err := artifacts.NewS3Store(cfg.S3)
		if s3Err != nil {
			appLogger.Fatal("Failed to initialize S3 artifact store", zap.Error(s3Err))
		}
		artifactStore = s3Store
		appLogger.Info("Artifacts will be written to S3", zap.String("bucket", cfg.S3.Bucket))
	} else if err != nil {
		appLogger.Fatal("Failed to initialize local artifact store", zap.Error(err))
	} else {
		appLogger.Info("Artifacts will be written to local disk", zap.String("dir", cfg.Pipeline.ArtifactsDir))
	}

	var mailAdapter ports.MailAdapter
	if cfg.Pipeline.DefaultSource == "" || cfg.Pipeline.DefaultSource == "sample" {
		mailAdapter = adapters.NewSampleAdapter()
	} else {
		mailAdapter = adapters.NewCSVAdapter(cfg.Pipeline.DefaultSource)
	}

	var llmClassifier pipelinesvc.LLMClassifier
	if cfg.LLM.Disabled {
		appLogger.Info("LLM classification disabled, rule path only")
	} else {
		transport := anthropictransport.New(cfg.LLM.APIKey, cfg.LLM.Disabled)
		llmClassifier = llmservice.New(transport, cfg.LLM.Model, cfg.LLM.Timeout)
	}

	pipeline := pipelinesvc.New(pipelinesvc.Dependencies{
		Adapter:     mailAdapter,
		LLM:         llmClassifier,
		Store:       artifactStore,
		Renderer:    diagramsvc.New(),
		Log:         appLogger,
		Concurrency: cfg.LLM.Concurrency,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpPlatform.RequestIDMiddleware())
	router.Use(httpPlatform.LoggerMiddleware(appLogger))
	router.Use(httpPlatform.CORSMiddleware())
	if os.Getenv("SENTRY_DSN") != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	router.GET("/health", healthCheckHandler())
	router.GET("/ping", pingHandler)

	pipelineHdl := pipelinehandler.New(pipeline, appLogger)

	v1 := router.Group("/api/v1")
	{
		pipelineHdl.RegisterRoutes(v1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// healthCheckHandler godoc
// @Summary Health Check
// @Description Check the health status of the application
// @Tags system
// @Produce json
// @Success 200 {object} http.HealthResponse
// @Router /health [get]
func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpPlatform.RespondWithHealth(c, map[string]string{"pipeline": "up"})
	}
}

// pingHandler godoc
// @Summary Ping
// @Description Simple ping endpoint to check if the API is responding
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
