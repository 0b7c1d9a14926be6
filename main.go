// File: dentaflow/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dentaflow/config"
	"dentaflow/cron"
	"dentaflow/database"
	calendarRepo "dentaflow/database/repository/calendar"
	"dentaflow/handlers"
	"dentaflow/middleware"
	"dentaflow/routes"
	"dentaflow/services/assistant"
	"dentaflow/services/audit"
	"dentaflow/services/booking"
	"dentaflow/services/calendar"
	ai "dentaflow/services/intelligence"
	"dentaflow/services/session"
	"dentaflow/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	// Calendar provider: Google in production, Mongo for local deployments.
	var provider calendar.Provider
	switch config.AppConfig.CalendarMode {
	case "google":
		gp, err := calendar.NewGoogleProvider(context.Background(), config.AppConfig.GoogleCalendarCredsFile)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Google calendar provider: %v", err)
		}
		provider = gp
	default:
		repo := calendarRepo.NewMongoCalendarRepo()
		if err := calendarRepo.EnsureIndexes(database.Collection("appointments")); err != nil {
			logger.Sugar().Warnf("main: failed to ensure appointment indexes: %v", err)
		}
		provider = repo
	}

	recorder := audit.NewMongoRecorder(database.Collection("audit"))

	reminderQueue := cron.NewReminderQueue()
	defer reminderQueue.Close()
	cron.InitReminderWorker(recorder)

	// Scheduling core.
	engine := booking.NewAvailabilityEngine(provider)
	transactor := booking.NewTransactor(provider, recorder, reminderQueue)
	pricing := booking.NewPricingSource(database.Collection("pricing"))

	// AI collaborator; the keyword fallback carries the conversation when no
	// API key is configured or the model is down.
	var (
		classifier = &ai.ResilientClassifier{}
		generator  ai.Generator
	)
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(context.Background(), config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini client: %v", err)
		}
		classifier.AI = gemini
		generator = gemini
	} else {
		logger.Warn("main: no Gemini API key configured, running keyword-only classification")
	}

	router := booking.NewActionRouter(engine, transactor, pricing, generator)

	ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	store := session.NewRedisStore(utils.GetSessionCacheClient(), ttl)

	assistantSvc := assistant.NewService(store, classifier, router)

	// HTTP layer.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.ErrorHandler())
	r.Use(gin.Logger())
	r.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(r, &routes.HandlerBundle{
		Assistant: handlers.NewAssistantHandler(assistantSvc),
		Booking:   handlers.NewBookingHandler(provider),
	})

	utils.StartHealthMonitor(utils.GetSessionCacheClient(), database.MongoClient)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: r,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
