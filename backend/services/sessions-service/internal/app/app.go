package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evcharge/backend/libs/db"
	"evcharge/backend/libs/events"
	"evcharge/backend/libs/httpmw"
	"evcharge/backend/libs/metrics"
	libredis "evcharge/backend/libs/redis"
	"evcharge/backend/services/sessions-service/internal/carbon"
	"evcharge/backend/services/sessions-service/internal/config"
	httpserver "evcharge/backend/services/sessions-service/internal/http"
	"evcharge/backend/services/sessions-service/internal/http/handlers"
	"evcharge/backend/services/sessions-service/internal/http/middleware"
	"evcharge/backend/services/sessions-service/internal/receipt"
	redisstore "evcharge/backend/services/sessions-service/internal/redis"
	"evcharge/backend/services/sessions-service/internal/repository"
	"evcharge/backend/services/sessions-service/internal/service"
)

const (
	serviceName       = "sessions-service"
	defaultWriteSlack = 10 * time.Second
)

// App wires sessions-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	events      events.Publisher
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgresDB(cfg.Database.DSN, db.PoolOptions{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &App{db: sqlDB, logger: logger}

	if cfg.Database.Migrate {
		if err := db.NewMigrationRunner(sqlDB).Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	var cache service.ActiveCache
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
		cache = redisstore.NewStore(a.redisClient, cfg.ActiveSessionTTL())
	} else {
		logger.Info("active session cache disabled")
	}

	a.events, err = events.New(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	m := metrics.New(serviceName)

	sessionRepo := repository.NewSessionRepository(sqlDB)
	stationRepo := repository.NewStationRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	carbonRepo := repository.NewCarbonRepository(sqlDB)

	ocr := receipt.NewOCRClient(cfg.OCR.URL, cfg.OCR.Secret, cfg.OCR.Lang, receipt.NewDefaultHTTPClient(cfg.OCRTimeout()))
	accountant := carbon.NewAccountant(carbonRepo, userRepo, cfg.Carbon.DefaultEfficiency, logger)

	sessionsService := service.NewSessionsService(service.Deps{
		Sessions:          sessionRepo,
		Stations:          stationRepo,
		Users:             userRepo,
		Receipts:          receipt.NewExtractor(ocr),
		Carbon:            accountant,
		Cache:             cache,
		Events:            a.events,
		Metrics:           m,
		Logger:            logger,
		GeofenceTolerance: cfg.Geofence.ToleranceMeters,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Sessions:       handlers.NewSessionsHandlers(sessionsService, logger),
		Health:         handlers.NewHealthHandler(),
		Metrics:        m.Handler(),
		Authenticate:   middleware.AuthMiddleware(cfg.Auth.JWTSecret, userRepo, logger),
		RequestLogging: httpmw.RequestLogger(logger, m),
	})
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, cfg.OCRTimeout()+defaultWriteSlack, logger)

	logger.Info("sessions service configured",
		zap.Float64("geofence_tolerance_m", cfg.Geofence.ToleranceMeters),
		zap.Bool("redis_cache", cache != nil),
		zap.Int("kafka_brokers", len(cfg.Kafka.Brokers)),
	)
	return a, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
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
