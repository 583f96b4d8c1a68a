package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/auth"
	"market-admin/internal/cache"
	"market-admin/internal/config"
	"market-admin/internal/database"
	"market-admin/internal/db"
	h "market-admin/internal/http"
	"market-admin/internal/handlers"
	"market-admin/internal/health"
	"market-admin/internal/logger"
	"market-admin/internal/middleware"
	"market-admin/internal/notify"
	"market-admin/internal/realtime"
	"market-admin/internal/repositories"
	"market-admin/internal/services"
	"market-admin/internal/storage"
	"market-admin/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				log.WithField("problem", p).Error("Configuration error")
			}
		}
		log.Fatal("Refusing to start with missing or placeholder credentials")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	pool, err := db.Connect(connectCtx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer pool.Close()

	log.Info("Running database migrations...")
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.NewMigrator(pool, migrations.FS, log).RunMigrations(migrateCtx)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	if *migrateOnly {
		return
	}

	// Redis is optional: without it queries go straight to Postgres and
	// sign-out relies on the session row alone.
	if err := cache.Init(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password); err != nil {
		log.WithError(err).Warn("Redis cache unavailable, continuing without it")
	} else {
		log.Info("Redis cache connected")
	}
	defer cache.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	sessionRepo := repositories.NewSessionRepository(pool)
	adminRepo := repositories.NewAdminRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)
	submissionRepo := repositories.NewSubmissionRepository(pool)
	activityRepo := repositories.NewActivityLogRepository(pool)
	statsRepo := repositories.NewStatsRepository(pool)

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	activity := services.NewActivityRecorder(activityRepo, log)
	totpService := services.NewTOTPService(adminRepo, cfg.JWT.Issuer)
	authService := services.NewAuthService(userRepo, sessionRepo, adminRepo, jwtManager, totpService, activity, log)

	var refunder services.Refunder
	if cfg.RazorpayEnabled() {
		refunder = services.NewRazorpayRefunder(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	} else {
		log.Info("Razorpay not configured, refunds of online payments are disabled")
	}

	var notifier notify.Notifier = notify.LogNotifier{Logger: log}
	if cfg.Notify.SMSAPIKey != "" {
		notifier = notify.NewFast2SMS(cfg.Notify.SMSAPIKey)
	}

	productService := services.NewProductService(productRepo, activity, log)
	orderService := services.NewOrderService(orderRepo, activity, refunder, notifier, log)
	submissionService := services.NewSubmissionService(submissionRepo, activity, notifier, log)
	adminService := services.NewAdminService(adminRepo, activity, log)
	analyticsService := services.NewAnalyticsService(statsRepo, orderRepo, productRepo, log)

	var productImages handlers.ProductImages
	var submissionImages handlers.SubmissionImages
	if cfg.StorageEnabled() {
		store, err := storage.New(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure object storage")
		}
		for _, bucket := range []string{storage.ProductBucket, storage.SubmissionBucket} {
			if err := store.EnsureBucket(ctx, bucket); err != nil {
				log.WithError(err).WithField("bucket", bucket).Warn("Could not verify storage bucket")
			}
		}
		images := services.NewImageService(store, productService, submissionService, log)
		productImages, submissionImages = images, images
	} else {
		log.Info("Object storage not configured, image uploads disabled")
	}

	// Realtime bridge
	hub := realtime.NewHub(log, middleware.OriginChecker(cfg))
	realtimeService := realtime.NewService(realtime.NewListener(cfg.DSN(), log), hub, log)
	realtimeService.Start(ctx)
	defer realtimeService.Stop()

	healthChecker := health.NewHealthChecker(pool, pool, realtimeService.Status)

	router := h.NewRouter(
		handlers.NewAuthHandler(authService, cfg.Auth.ServiceRoleKey, log),
		handlers.NewTOTPHandler(totpService, log),
		handlers.NewProductHandler(productService, productImages, log),
		handlers.NewOrderHandler(orderService, log),
		handlers.NewSubmissionHandler(submissionService, submissionImages, log),
		handlers.NewAdminHandler(adminService, activity, log),
		handlers.NewAnalyticsHandler(analyticsService, log),
		handlers.NewRealtimeHandler(realtimeService),
		handlers.NewHealthHandler(healthChecker),
		middleware.NewAuthMiddleware(authService, log),
		log,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
