package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evcharge/backend/libs/db"
	"evcharge/backend/libs/events"
	"evcharge/backend/libs/httpmw"
	"evcharge/backend/libs/metrics"
	libredis "evcharge/backend/libs/redis"
	"evcharge/backend/services/stations-service/internal/catalogsync"
	"evcharge/backend/services/stations-service/internal/config"
	"evcharge/backend/services/stations-service/internal/feed"
	httpserver "evcharge/backend/services/stations-service/internal/http"
	"evcharge/backend/services/stations-service/internal/http/handlers"
	"evcharge/backend/services/stations-service/internal/http/middleware"
	"evcharge/backend/services/stations-service/internal/repository"
	"evcharge/backend/services/stations-service/internal/scheduler"
	"evcharge/backend/services/stations-service/internal/service"
)

const (
	serviceName       = "stations-service"
	syncLockKey       = "stations:catalog-sync:lock"
	defaultWriteSlack = 10 * time.Second
)

// App wires stations-service dependencies.
type App struct {
	server      *httpserver.Server
	scheduler   *scheduler.Scheduler
	db          *sql.DB
	redisClient *redis.Client
	events      events.Publisher
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{db: sqlDB, logger: logger}

	var locker scheduler.Locker
	if cfg.RedisEnabled() {
		a.redisClient, err = libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = libredis.NewLock(a.redisClient, syncLockKey, cfg.Sync.LockTTL)
	} else {
		logger.Info("sync lock disabled, assuming a single replica")
	}

	a.events, err = events.New(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	m := metrics.New(serviceName)
	catalogRepo := repository.NewCatalogRepository(sqlDB)
	pipeline := NewPipeline(cfg, catalogRepo, a.events, m, logger)

	if cfg.Sync.Enabled {
		a.scheduler = scheduler.New(pipeline, locker, cfg.Sync.Region, cfg.Sync.Interval, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Stations:       handlers.NewStationsHandlers(service.NewStationsService(catalogRepo, cfg.Query.DefaultRadius), logger),
		Refresh:        handlers.NewRefreshHandler(pipeline, logger),
		Health:         handlers.NewHealthHandler(),
		Metrics:        m.Handler(),
		AdminOnly:      middleware.AdminToken(cfg.HTTP.AdminToken, logger),
		RequestLogging: httpmw.RequestLogger(logger, m),
	})
	writeTimeout := cfg.Feed.Timeout*time.Duration(cfg.Sync.MaxPages) + defaultWriteSlack
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, writeTimeout, logger)

	logger.Info("stations service configured",
		zap.Bool("sync_enabled", cfg.Sync.Enabled),
		zap.String("sync_region", cfg.Sync.Region),
		zap.Duration("sync_interval", cfg.Sync.Interval),
		zap.Bool("sync_lock", locker != nil),
		zap.Int("kafka_brokers", len(cfg.Kafka.Brokers)),
	)
	return a, nil
}

// OpenDatabase connects to Postgres and applies migrations when enabled.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	sqlDB, err := db.NewPostgresDB(cfg.Database.DSN, db.PoolOptions{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.Migrate {
		if err := db.NewMigrationRunner(sqlDB).Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return sqlDB, nil
}

// NewPipeline builds the catalog sync pipeline over the configured feed.
func NewPipeline(cfg *config.Config, store catalogsync.CatalogStore, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) *catalogsync.Pipeline {
	client := feed.NewClient(cfg.Feed.URL, cfg.Feed.ServiceKey, feed.NewDefaultHTTPClient(cfg.Feed.Timeout))
	return catalogsync.NewPipeline(client, store, publisher, m, catalogsync.Options{
		PageSize: cfg.Sync.PageSize,
		MaxPages: cfg.Sync.MaxPages,
	}, logger)
}

// Run starts the scheduler and HTTP server and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.scheduler.Run(ctx)
		}()
	}
	err := a.server.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
