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

	"groundlink/internal/config"
	"groundlink/internal/handlers"
	"groundlink/internal/middleware"
	"groundlink/internal/repositories/mongodb"
	"groundlink/internal/services"
	"groundlink/pkg/cache"
	"groundlink/pkg/database"
	"groundlink/pkg/logger"
	"groundlink/pkg/maps"
	"groundlink/pkg/payment"
	"groundlink/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Payment processor
	stripeProvider := payment.NewStripeProvider(
		cfg.Payment.Stripe.SecretKey,
		cfg.Payment.Stripe.WebhookSecret,
		cfg.Payment.Stripe.SuccessURL,
		cfg.Payment.Stripe.CancelURL,
		cfg.Payment.Stripe.CheckoutTTL,
	)

	// Distance provider is optional; booking flow degrades gracefully
	// without it.
	var distanceProvider maps.DistanceProvider
	if cfg.Maps.GoogleMaps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			appLogger.WithError(err).Warn("distance provider unavailable")
		} else {
			distanceProvider = provider
		}
	}

	// Repositories
	bookingRepo := mongodb.NewBookingRepository(db.Database)
	paymentRepo := mongodb.NewPaymentRepository(db.Database)
	assignmentRepo := mongodb.NewAssignmentRepository(db.Database)
	statusEventRepo := mongodb.NewStatusEventRepository(db.Database)
	pricingRepo := mongodb.NewPricingRepository(db.Database)
	transactor := mongodb.NewTransactor(db.Client)

	// Services
	cacheService := services.NewCacheService(redisCache, cfg.Redis.KeyPrefix)
	notifier := services.NewNotificationService(cacheService, cfg.Events.Channel, appLogger)
	bookingService := services.NewBookingService(
		bookingRepo, paymentRepo, assignmentRepo, statusEventRepo, pricingRepo,
		transactor, cacheService, stripeProvider, distanceProvider, notifier,
		appLogger, cfg.App.Currency,
	)
	assignmentService := services.NewAssignmentService(
		bookingRepo, paymentRepo, assignmentRepo, statusEventRepo, pricingRepo,
		transactor, cacheService, notifier, appLogger,
	)

	// Handlers
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(bookingService, stripeProvider, appLogger)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	pricingHandler := handlers.NewPricingHandler(pricingRepo)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupBookingRoutes(v1, bookingHandler, paymentHandler, assignmentHandler, cfg.Security.JWTSecret)
		routes.SetupPricingRoutes(v1, pricingHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"mongodb": "ok", "redis": "ok"}

		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			checks["mongodb"] = err.Error()
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		}

		c.JSON(status, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on port %d", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}
