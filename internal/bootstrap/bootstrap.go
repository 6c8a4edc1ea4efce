package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/lock"
)

// App holds the long-lived dependencies shared by the HTTP server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Grid      *scheduler.TimeGrid
	DB        *sqlx.DB
	Redis     *redis.Client
	Metrics   *service.MetricsService
	Cache     *service.CacheService
	Timetable *service.TimetableGeneratorService
}

// New opens storage and wires the generator service.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	grid, err := scheduler.NewTimeGridFromNames(cfg.Scheduler.Days, cfg.Scheduler.PeriodsPerDay, cfg.Scheduler.BreakPeriods)
	if err != nil {
		return nil, fmt.Errorf("scheduler grid: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	locker, err := newLocker(cfg.Lock, rdb, logger)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(rdb, logger),
		metrics,
		cfg.Cache.TTL,
		logger,
		cfg.Cache.Enabled && rdb != nil,
	)

	timetable := service.NewTimetableGeneratorService(
		repository.NewTimetableRepository(db),
		db,
		locker,
		cacheSvc,
		metrics,
		validator.New(),
		logger,
		service.TimetableGeneratorConfig{
			Grid: grid,
			Engine: scheduler.Options{
				MaxConsecutive: cfg.Scheduler.MaxConsecutive,
				MaxRelocations: cfg.Scheduler.MaxRelocations,
			},
		},
	)

	logger.Info("timetable service ready",
		zap.String("db_driver", db.DriverName()),
		zap.Bool("redis", rdb != nil),
		zap.String("lock_backend", cfg.Lock.Backend),
		zap.Int("cells", len(grid.Cells())),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Grid:      grid,
		DB:        db,
		Redis:     rdb,
		Metrics:   metrics,
		Cache:     cacheSvc,
		Timetable: timetable,
	}, nil
}

func newLocker(cfg config.LockConfig, rdb *redis.Client, logger *zap.Logger) (lock.Locker, error) {
	switch cfg.Backend {
	case "", config.LockBackendLocal:
		return lock.NewLocalLocker(cfg.Timeout), nil
	case config.LockBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("lock backend %q requires REDIS_ENABLED=true", cfg.Backend)
		}
		return lock.NewRedisLocker(rdb, cfg.TTL, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", cfg.Backend)
	}
}

// Migrate applies the schema.
func (a *App) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, a.DB)
}

// Ping checks every backing store.
func (a *App) Ping(ctx context.Context) error {
	if err := a.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return cache.Ping(ctx, a.Redis)
}

// Close releases connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.DB.Close()
}
