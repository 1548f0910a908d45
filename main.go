// File: /main.go
package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	gormlogger "gorm.io/gorm/logger"
	"inkwell-api/config"
	"inkwell-api/database"
	"inkwell-api/jobs"
	"inkwell-api/logger"
	"inkwell-api/metrics"
	"inkwell-api/middleware"
	"inkwell-api/repositories"
	"inkwell-api/routes"
	"inkwell-api/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	sugar, err := logger.NewSugar(cfg.Env)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer sugar.Sync()

	logLevel := gormlogger.Warn
	if cfg.Env == "dev" {
		logLevel = gormlogger.Info
	}

	// Initialize database
	db, err := database.Initialize(cfg.DBDriver, cfg.DatabaseURL, logLevel)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "driver", cfg.DBDriver, "error", err)
	}

	// Run migrations
	if err := database.Migrate(db, sugar); err != nil {
		sugar.Fatalw("failed to migrate database", "error", err)
	}

	if err := database.SeedAdmin(db, cfg, sugar); err != nil {
		sugar.Warnw("failed to seed admin account", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	resetRepo := repositories.NewResetTokenRepository(db)

	// Services
	emailService := services.NewEmailService(cfg, sugar)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.MailSecretKey)
	notificationService := services.NewNotificationService(userRepo, emailService, cfg.PublicURL, cfg.MailRatePerSecond, cfg.MailTimeout, sugar, m)
	postService := services.NewPostService(db, postRepo, notificationService, cfg.Location, sugar, m)
	commentService := services.NewCommentService(commentRepo, postService, cfg.CommentMaxDepth, sugar)
	authService := services.NewAuthService(db, userRepo, resetRepo, tokenService, emailService, cfg.PublicURL, sugar, m)
	captcha := services.NewHCaptchaVerifier(cfg.HCaptchaSecret, cfg.HCaptchaVerifyURL)
	contactService := services.NewContactService(captcha, emailService, cfg.ContactRecipient, sugar)

	overdueJob := jobs.NewOverdueScheduleJob(postService, cfg.ScheduleCheckInterval, sugar, m)
	overdueJob.Start()
	defer overdueJob.Stop()

	// Set Gin mode based on environment
	if cfg.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(routes.SetupCORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.RequestLogger(sugar, m))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorHandler(sugar))

	routes.SetupRoutes(router, routes.Services{
		Auth:     authService,
		Posts:    postService,
		Comments: commentService,
		Contact:  contactService,
	}, cfg.PublicURL, cfg.Env != "dev", registry)

	sugar.Infow("starting blog API server", "port", cfg.Port, "env", cfg.Env, "db", cfg.DBDriver)
	if err := router.Run(":" + cfg.Port); err != nil {
		sugar.Fatalw("failed to start server", "error", err)
	}
}
