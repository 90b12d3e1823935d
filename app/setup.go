package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/sahilchouksey/campus-api/api"
	"github.com/sahilchouksey/campus-api/config"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/router"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/services/cron"
	"github.com/sahilchouksey/campus-api/services/digitalocean"
	"github.com/sahilchouksey/campus-api/utils"
	"github.com/sahilchouksey/campus-api/utils/auth"
	"github.com/sahilchouksey/campus-api/utils/cache"
	"go.uber.org/zap"
)

// Bootstrap loads the configuration, the logger and the document store
// shared by the server and the commands.
func Bootstrap(ctx context.Context) (*config.Config, *zap.Logger, database.Storage, *firebase.App, error) {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return nil, nil, nil, nil, err
	}

	cfg, err := config.Get()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var fbApp *firebase.App
	if cfg.StoreDriver == config.DriverFirestore || cfg.AuthProvider == config.AuthFirebase {
		if fbApp, err = database.NewFirebaseApp(ctx, cfg); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	store, err := database.Open(ctx, cfg, fbApp)
	if err != nil {
		logger.Error("failed to open document store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		return nil, nil, nil, nil, err
	}

	if err := store.Init(); err != nil {
		logger.Error("failed to initialize document store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		store.Close()
		return nil, nil, nil, nil, err
	}

	logger.Info("document store ready", zap.String("driver", store.Driver()), zap.Int("max_batch", store.MaxBatchSize()))
	return cfg, logger, store, fbApp, nil
}

func newVerifier(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (auth.Verifier, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		return auth.NewFirebaseVerifier(ctx, fbApp)
	}
	return auth.NewJWTManager(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Expiry: 24 * time.Hour,
		Issuer: cfg.JWTIssuer,
	}), nil
}

func newArchiver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Archiver, error) {
	spaces, err := digitalocean.NewSpacesClient(digitalocean.SpacesConfig{
		AccessKey: cfg.SpacesAccessKey,
		SecretKey: cfg.SpacesSecretKey,
		Bucket:    cfg.SpacesBucket,
		Region:    cfg.SpacesRegion,
		Endpoint:  cfg.SpacesEndpoint,
	})
	if err != nil {
		return nil, err
	}
	if err := spaces.HeadBucket(ctx); err != nil {
		// Deletions fail until the bucket is reachable
		logger.Warn("archive bucket unreachable", zap.String("bucket", cfg.SpacesBucket), zap.Error(err))
	}
	return services.NewArchiveService(spaces, cfg.CollegeID, logger), nil
}

func SetupAndRunServer() error {
	ctx := context.Background()

	cfg, logger, store, fbApp, err := Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var opts []services.Option
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, "campus")
		if err != nil {
			logger.Warn("redis unavailable, structure cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			opts = append(opts, services.WithCache(redisCache, cfg.CacheTTL))
		}
	}

	deletionOpts := opts
	if cfg.ArchiveEnabled {
		archiver, err := newArchiver(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to set up subtree archive", zap.Error(err))
			return err
		}
		deletionOpts = append(append([]services.Option{}, opts...), services.WithArchiver(archiver))
	}

	verifier, err := newVerifier(ctx, cfg, fbApp)
	if err != nil {
		return err
	}

	svc := router.Services{
		Structure:   services.NewStructureService(store, cfg.CollegeID, logger, opts...),
		Deletion:    services.NewDeletionService(store, cfg.CollegeID, logger, deletionOpts...),
		Roles:       services.NewRoleService(store, logger),
		Departments: services.NewDepartmentService(store, cfg.CollegeID, logger),
		Staff:       services.NewStaffService(store, cfg.CollegeID, logger),
		Bulletin:    services.NewBulletinService(store, cfg.CollegeID, logger),
	}

	// Initialize Cron Manager (only if enabled)
	var cronManager *cron.CronManager
	if cfg.CronEnabled {
		auditor := services.NewAuditService(store, cfg.CollegeID, logger)
		cronManager = cron.NewCronManager(store, cfg.CollegeID, logger, svc.Structure, svc.Structure, auditor)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logger.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if err := store.Close(); err != nil {
			logger.Warn("failed to close document store", zap.Error(err))
		}
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port), logger)
	router.SetupRoutes(server.GetEngine(), router.Deps{
		Store:              store,
		Verifier:           verifier,
		Services:           svc,
		Logger:             logger,
		AllowedOrigins:     cfg.Origins(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	return server.Run()
}
