package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appcatalog "github.com/vitaguide/backend/internal/application/catalog"
	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/infrastructure/auth"
	"github.com/vitaguide/backend/internal/infrastructure/cache"
	"github.com/vitaguide/backend/internal/infrastructure/config"
	"github.com/vitaguide/backend/internal/infrastructure/event"
	"github.com/vitaguide/backend/internal/infrastructure/logger"
	"github.com/vitaguide/backend/internal/infrastructure/metrics"
	"github.com/vitaguide/backend/internal/infrastructure/persistence"
	"github.com/vitaguide/backend/internal/infrastructure/persistence/mongostore"
	"github.com/vitaguide/backend/internal/infrastructure/scheduler"
	"github.com/vitaguide/backend/internal/infrastructure/telemetry"
	"github.com/vitaguide/backend/internal/infrastructure/vademecum"
	"github.com/vitaguide/backend/internal/interfaces/http/handler"
	"github.com/vitaguide/backend/internal/interfaces/http/middleware"
	"github.com/vitaguide/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// storage bundles the repositories of the selected driver
type storage struct {
	supplements catalog.SupplementRepository
	users       identity.UserProfileReader
	ping        handler.HealthCheck
	close       func(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting VitaGuide backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFromApp(cfg.Telemetry, version), log.Named("telemetry"))
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}()

	catalogMetrics := metrics.NewCatalogMetrics()

	catalogCache, redisClient := cache.NewCatalogCacheFromConfig(cfg.Cache, cfg.Redis, log.Named("cache"),
		cache.WithCacheRecorder(catalogMetrics))
	defer func() {
		_ = catalogCache.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	vendorClient, err := vademecum.NewClient(vademecum.NewConfig(cfg.Vendor),
		vademecum.WithCache(catalogCache),
		vademecum.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to create vendor client", zap.Error(err))
	}

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Kafka.Enabled {
		producer, err := event.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatal("Failed to connect to Kafka", zap.Error(err), zap.Strings("brokers", cfg.Kafka.Brokers))
		}
		kafkaPublisher := event.NewKafkaSyncPublisher(producer, cfg.Kafka.Topic, log)
		eventBus.Subscribe(kafkaPublisher, kafkaPublisher.EventTypes()...)
		defer func() {
			_ = kafkaPublisher.Close()
		}()
		log.Info("Publishing sync events to Kafka", zap.String("topic", cfg.Kafka.Topic))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	syncService := appcatalog.NewSyncService(vendorClient, store.supplements,
		appcatalog.WithSyncLogger(log),
		appcatalog.WithSyncConcurrency(cfg.Sync.Concurrency),
		appcatalog.WithSyncEventPublisher(eventBus),
		appcatalog.WithSyncRecorder(catalogMetrics),
	)
	recommendationService := appcatalog.NewRecommendationService(store.users, store.supplements, log)

	syncScheduler := scheduler.NewCatalogSyncScheduler(scheduler.ConfigFromApp(cfg.Sync), syncService,
		scheduler.WithSchedulerLogger(log))
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start catalog sync scheduler", zap.Error(err))
	}
	triggerStartupSync(ctx, cfg.Sync, store, syncScheduler, log)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(logger.Recovery(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, "/health", cfg.Metrics.Path))
	}
	engine.Use(logger.GinMiddleware(log))
	if cfg.Metrics.Enabled {
		engine.Use(catalogMetrics.GinMiddleware())
		engine.GET(cfg.Metrics.Path, gin.WrapH(catalogMetrics.Handler()))
	}

	checks := map[string]handler.HealthCheck{"storage": store.ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	engine.GET("/health", handler.NewHealthHandler(cfg.App.Name, version, checks).Health)

	jwtService := auth.NewJWTService(cfg.JWT)
	authenticated := middleware.JWTAuth(jwtService, log)

	router.NewRouter(engine).
		Register(handler.NewRecommendationHandler(recommendationService), authenticated, middleware.TraceUser()).
		Register(handler.NewCatalogAdminHandler(syncScheduler, catalogCache), authenticated, middleware.TraceUser(), middleware.RequireRole(auth.RoleAdmin)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Catalog sync scheduler did not stop cleanly", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openStorage connects the configured storage driver.
// In development the postgres schema is created with AutoMigrate;
// elsewhere it is managed by cmd/migrate.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMongo:
		conn, err := mongostore.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		supplements := mongostore.NewSupplementRepository(conn.Database)
		if err := supplements.EnsureIndexes(ctx); err != nil {
			_ = conn.Close(context.Background())
			return nil, err
		}
		return &storage{
			supplements: supplements,
			users:       mongostore.NewUserProfileRepository(conn.Database),
			ping:        conn.Ping,
			close:       conn.Close,
		}, nil

	default:
		db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		if err := telemetry.RegisterGormTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			DBSystem:        "postgresql",
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		if cfg.App.Env == "development" {
			if err := db.AutoMigrate(); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		log.Info("Database connected successfully")
		return &storage{
			supplements: persistence.NewGormSupplementRepository(db.DB),
			users:       persistence.NewGormUserProfileRepository(db.DB),
			ping: func(ctx context.Context) error {
				sqlDB, err := db.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			close: func(context.Context) error { return db.Close() },
		}, nil
	}
}

// triggerStartupSync fills an empty catalog without waiting for the first slot
func triggerStartupSync(ctx context.Context, cfg config.SyncConfig, store *storage, s *scheduler.CatalogSyncScheduler, log *zap.Logger) {
	if !cfg.Enabled {
		return
	}
	count, err := store.supplements.Count(ctx)
	if err != nil {
		log.Warn("Could not count supplements, skipping startup sync", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}
	if _, err := s.TriggerAsync(scheduler.TriggerStartup); err != nil {
		log.Warn("Startup sync not started", zap.Error(err))
		return
	}
	log.Info("Catalog is empty, startup sync started")
}
