package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"study-tracker/config"
	"study-tracker/handlers"
	"study-tracker/logger"
	"study-tracker/middleware"
	"study-tracker/models"
	"study-tracker/services"
	"study-tracker/utils"
	"study-tracker/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger mode comes from config, so fall back to a dev logger here.
		boot, _ := logger.New("development")
		boot.Fatal("failed to load config", "error", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLogLevel := gormlogger.Warn
	if cfg.IsProduction() {
		gormLogLevel = gormlogger.Error
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	var archive services.Archiver
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Archiver(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		archive = r2
		log.Info("R2 archive enabled", "bucket", cfg.R2Bucket)
	} else {
		log.Warn("R2 not configured, export is disabled and clear will not archive")
	}

	var llm services.TextGenerator
	if cfg.GeminiAPIKey != "" {
		llm = services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not set, AI coach is disabled")
	}

	var cache services.AnswerCache
	if cfg.RedisURL != "" {
		rc, err := services.NewRedisAnswerCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, coach answers will not be cached", "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	achievementService := services.NewAchievementService(db, log.With("service", "achievements"))
	userService := services.NewUserService(db, log.With("service", "users"), achievementService, cfg.DefaultDailyGoalHours)
	studyLogService := services.NewStudyLogService(db, log.With("service", "study_logs"), achievementService, archive)
	progressionService := services.NewProgressionService(db, log.With("service", "progression"))
	analyticsService := services.NewAnalyticsService(db, log.With("service", "analytics"))
	coachService := services.NewCoachService(db, log.With("service", "coach"), llm, cache)

	hour, minute, _ := cfg.NightlyJobTime()
	sched, err := services.StartNightlyScheduler(ctx, &services.NightlyJob{
		Users:        userService,
		Achievements: achievementService,
		Progression:  progressionService,
		Log:          log.With("service", "scheduler"),
		Now:          time.Now,
	}, hour, minute)
	if err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	if cfg.SyncServiceURL != "" {
		workers.NewProfileSyncWorker(db, userService, log, cfg.SyncServiceURL, "/api/v1/public/profiles", cfg.GatewayToken).Start(ctx)
	} else {
		log.Warn("SYNC_SERVICE_URL not set, profile sync worker disabled")
	}

	var auth middleware.TokenValidator
	if cfg.AuthServiceURL != "" {
		auth = services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthToken)
	} else {
		log.Warn("AUTH_SERVICE_URL not set, achievement stream disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "study-tracker",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Only Gateway requests allowed.
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, log))

	handlers.SetupRoutes(app, handlers.Deps{
		Users:        userService,
		Logs:         studyLogService,
		Achievements: achievementService,
		Progression:  progressionService,
		Analytics:    analyticsService,
		Coach:        coachService,
		Auth:         auth,
		Log:          log,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	log.Info("server running", "port", cfg.Port, "origins", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Info("shutting down server")

	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown failed", "error", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("server shutdown failed", "error", err)
	}
}
