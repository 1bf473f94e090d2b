package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pilot-progress-system/config"
	"pilot-progress-system/handlers"
	"pilot-progress-system/logger"
	"pilot-progress-system/middleware"
	"pilot-progress-system/models"
	"pilot-progress-system/services"
	"pilot-progress-system/utils"
	"pilot-progress-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
			return serve(cfg, log)
		},
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func serve(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	var images services.ImageStore
	if cfg.R2.Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2)
		if err != nil {
			return err
		}
		images = store
	} else {
		log.Warn("⚠️ R2 not configured, artifact image uploads disabled")
	}

	catalog := services.NewCatalogService(db, log)
	events := services.NewProgressEventService(db, log)
	progress := services.NewProgressionService(db, catalog, events, log)
	syncStore := services.NewRewardSyncStore(db)
	svc := handlers.Services{
		Progression: progress,
		Catalog:     catalog,
		Events:      events,
		Artifacts:   services.NewArtifactService(db, catalog, images, log),
		SyncStore:   syncStore,
		Identity:    services.NewIdentityClient(cfg.IdentityServiceURL, cfg.ServiceToken),
		Log:         log,
	}

	jobs := []services.Job{services.CatalogRefreshJob(catalog, cfg.CatalogRefreshInterval)}
	if cfg.RemoteProgressURL != "" {
		w := workers.NewRewardSyncWorker(syncStore, cfg.RemoteProgressURL, cfg.ServiceToken, utils.HTTPClient, log)
		jobs = append(jobs, w.Job(cfg.RewardSyncInterval))
	} else {
		log.Warn("⚠️ REMOTE_PROGRESS_URL not set, rewards stay queued locally")
	}
	if cfg.ProfileServiceURL != "" {
		w := workers.NewProfileSyncWorker(progress, cfg.ProfileServiceURL, cfg.ServiceToken, utils.HTTPClient, log)
		jobs = append(jobs, w.Job(cfg.ProfileSyncInterval))
	}
	sched, err := services.StartScheduler(ctx, log, jobs...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn("scheduler shutdown", "error", err)
		}
	}()

	app := newApp(cfg, svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Info("✅ Server running", "port", cfg.Port, "origins", strings.Join(cfg.AllowedOrigins, ","))

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func newApp(cfg *config.Config, svc handlers.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: utils.MaxImageSize + 1<<20,
	})

	// Only gateway requests are allowed.
	app.Use(middleware.GatewayAuth(cfg.ServiceToken, svc.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Service-Token, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Admin routes first: the pilot group mounts its middleware on "/".
	handlers.SetupAdminRoutes(app, svc)
	handlers.SetupProgressionRoutes(app, svc)
	return app
}
