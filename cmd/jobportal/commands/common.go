package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jobportal/internal/cache"
	"jobportal/internal/config"
	"jobportal/internal/database"
	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/report"
	"jobportal/internal/domain/resume"
	"jobportal/internal/domain/user"
	"jobportal/internal/http/response"
	"jobportal/internal/observability"
	"jobportal/internal/repository/memory"
	"jobportal/internal/repository/postgres"
)

// appContext holds what every command needs: config, logger, repositories
// and the optional redis client.
type appContext struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	users        user.Repository
	jobs         job.Repository
	resumes      resume.Repository
	applications application.Repository
	reports      report.Repository

	logCloser io.Closer
}

func newAppContext(ctx context.Context, envFile string) (*appContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logger, logCloser := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	slog.SetDefault(logger)
	response.SetDevelopment(cfg.IsDevelopment())

	ac := &appContext{cfg: cfg, logger: logger, logCloser: logCloser}
	if err := ac.openStorage(ctx); err != nil {
		ac.Close()
		return nil, err
	}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			ac.Close()
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		ac.redis = client
	}
	return ac, nil
}

func (ac *appContext) openStorage(ctx context.Context) error {
	if ac.cfg.DatabaseURL == "" {
		ac.logger.Warn("DATABASE_URL is empty, using in-memory storage")
		store := memory.NewStore()
		ac.users = store.Users()
		ac.jobs = store.Jobs()
		ac.resumes = store.Resumes()
		ac.applications = store.Applications()
		ac.reports = store.Reports()
		return nil
	}
	db, err := ac.openDB(ctx)
	if err != nil {
		return err
	}
	if ac.cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}
	ac.users = postgres.NewUserRepository(db)
	ac.jobs = postgres.NewJobRepository(db)
	ac.resumes = postgres.NewResumeRepository(db)
	ac.applications = postgres.NewApplicationRepository(db)
	ac.reports = postgres.NewReportRepository(db)
	return nil
}

func (ac *appContext) openDB(ctx context.Context) (*sql.DB, error) {
	if ac.db != nil {
		return ac.db, nil
	}
	if ac.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := database.NewPostgres(ctx, database.PostgresConfig{
		DSN:             ac.cfg.DatabaseURL,
		MaxOpenConns:    ac.cfg.DBMaxOpenConns,
		MaxIdleConns:    ac.cfg.DBMaxIdleConns,
		ConnMaxIdle:     ac.cfg.DBConnMaxIdle,
		ConnMaxLifetime: ac.cfg.DBConnMaxLife,
		ReadyDeadline:   ac.cfg.DBReadyDeadline,
	}, ac.logger)
	if err != nil {
		return nil, err
	}
	ac.db = db
	return db, nil
}

// cacheStore picks the key store for CACHE_DRIVER.
func (ac *appContext) cacheStore() cache.KeyStore {
	switch ac.cfg.CacheDriver {
	case "redis":
		return cache.NewRedisStore(ac.redis, cache.DefaultNamespace)
	case "none":
		return cache.NullStore{}
	default:
		return cache.NewMemoryStore(time.Minute)
	}
}

func (ac *appContext) Close() {
	if ac.redis != nil {
		if err := ac.redis.Close(); err != nil {
			ac.logger.Warn("failed to close redis client", slog.Any("error", err))
		}
	}
	if ac.db != nil {
		if err := ac.db.Close(); err != nil {
			ac.logger.Warn("failed to close database", slog.Any("error", err))
		}
	}
	if ac.logCloser != nil {
		_ = ac.logCloser.Close()
	}
}
