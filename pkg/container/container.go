package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/config"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
	authHandler "github.com/bcmedia-dr/doctor-management-system/internal/domains/auth/handler"
	authService "github.com/bcmedia-dr/doctor-management-system/internal/domains/auth/service"
	doctorHandler "github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/handler"
	doctorRepo "github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/repository"
	doctorService "github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/service"
	infraCache "github.com/bcmedia-dr/doctor-management-system/internal/infrastructure/cache"
	"github.com/bcmedia-dr/doctor-management-system/internal/infrastructure/database"
	"github.com/bcmedia-dr/doctor-management-system/internal/infrastructure/storage"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/middleware"
	"github.com/bcmedia-dr/doctor-management-system/pkg/cache"
	"github.com/bcmedia-dr/doctor-management-system/pkg/jwt"
)

// Container holds every long-lived dependency of the API process.
// Build order: config, infrastructure, repositories, services, handlers.
type Container struct {
	// ========================================
	// INFRASTRUCTURE
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient
	Cache       cache.Cache
	Storage     *storage.MinIOStorage // nil unless MINIO_ENABLED
	JWTManager  *jwt.Manager
	AuthLimiter *middleware.IPRateLimiter

	// ========================================
	// REPOSITORIES
	// ========================================
	DoctorRepo doctorRepo.RepositoryInterface

	// ========================================
	// SERVICES
	// ========================================
	DoctorService doctorService.ServiceInterface
	ImportService doctorService.ImportServiceInterface
	AuthService   auth.Service

	// ========================================
	// HANDLERS
	// ========================================
	DoctorHandler *doctorHandler.DoctorHandler
	ImportHandler *doctorHandler.ImportHandler
	AuthHandler   *authHandler.AuthHandler
}

// NewContainer loads configuration and connects everything. Any failure
// aborts startup, except the optional upload archive.
func NewContainer() (*Container, error) {
	log.Info().Msg("initializing container")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Str("env", cfg.App.Environment).Msg("container initialized")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	// Sessions live in Redis, so it is required.
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client)

	if cfg.MinIO.Enabled {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("minio unavailable, import uploads will not be archived")
		} else {
			c.Storage = st
			log.Info().Str("bucket", cfg.MinIO.Bucket).Msg("minio archive enabled")
		}
	}

	c.JWTManager = jwt.NewManager(cfg.Session.Secret)
	c.AuthLimiter = middleware.NewIPRateLimiter(6*time.Second, 10)
	return nil
}

func (c *Container) initRepositories() {
	c.DoctorRepo = doctorRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.DoctorService = doctorService.NewDoctorService(c.DoctorRepo, c.Cache, doctorService.NewExporter())
	c.ImportService = doctorService.NewImportService(c.DoctorRepo, c.Cache, doctorService.ImportOptions{
		MaxFileSize: cfg.Import.MaxFileSize,
		BatchSize:   cfg.Import.BatchSize,
	})

	accounts := []auth.Account{
		{Username: cfg.Auth.AdminUsername, PasswordHash: cfg.Auth.AdminPasswordHash, IsAdmin: true},
		{Username: cfg.Auth.UserUsername, PasswordHash: cfg.Auth.UserPasswordHash},
	}
	c.AuthService = authService.NewAuthService(accounts, c.Cache, c.JWTManager, cfg.Session.TTL)
}

func (c *Container) initHandlers() {
	cfg := c.Config

	c.DoctorHandler = doctorHandler.NewDoctorHandler(c.DoctorService)

	// A nil *MinIOStorage must not become a non-nil interface.
	var archiver doctorHandler.Archiver
	if c.Storage != nil {
		archiver = c.Storage
	}
	c.ImportHandler = doctorHandler.NewImportHandler(c.ImportService, archiver, cfg.Import.TempDir, cfg.Import.MaxFileSize)

	c.AuthHandler = authHandler.NewAuthHandler(c.AuthService, authHandler.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	})
}

// Cleanup releases connections. Safe to call on a partially built container.
func (c *Container) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}

	log.Info().Msg("container cleanup completed")
}
