package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/catalog-mapping-backend/internal/data/db"
	"github.com/yungbote/catalog-mapping-backend/internal/data/repos"
	mappinghttp "github.com/yungbote/catalog-mapping-backend/internal/http"
	httpH "github.com/yungbote/catalog-mapping-backend/internal/http/handlers"
	"github.com/yungbote/catalog-mapping-backend/internal/observability"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Server  *mappinghttp.Server
	Mapping services.MappingService
	Events  bus.Bus
	Metrics *observability.Metrics

	store        *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	policy, err := LoadPolicy(log, cfg.PolicyFile)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	store, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	source, err := wireCatalogSource(cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	events, err := wireBus(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	log.Info("Wiring services...")
	mappingService := services.NewMappingService(
		theDB,
		log,
		source,
		repos.NewCategoryMappingRepo(theDB, log),
		repos.NewAttributeMappingSetRepo(theDB, log),
		repos.NewProductDefaultCategoryRepo(theDB, log),
		events,
		policy,
	)

	log.Info("Wiring handlers...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	server := mappinghttp.NewServer(mappinghttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		HealthHandler:  httpH.NewHealthHandler(theDB),
		MappingHandler: httpH.NewMappingHandler(log, mappingService),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Server:       server,
		Mapping:      mappingService,
		Events:       events,
		Metrics:      metrics,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

func wireCatalogSource(cfg Config) (services.CatalogSource, error) {
	if cfg.CatalogFile == "" {
		return services.NewStaticCatalogSource(services.CatalogFixture{}), nil
	}
	source, err := services.LoadCatalogFixture(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return source, nil
}

func wireBus(log *logger.Logger, cfg Config) (bus.Bus, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; change events stay in-process")
		return bus.NewMemoryBus(), nil
	}
	b, err := bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
	if err != nil {
		return nil, fmt.Errorf("init redis bus: %w", err)
	}
	return b, nil
}

// Start subscribes to change events of other instances and starts the
// standalone metrics listener when one is configured.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Events.StartForwarder(ctx, a.Mapping.HandleEvent); err != nil {
		return fmt.Errorf("start event forwarder: %w", err)
	}
	if a.Metrics != nil && a.Cfg.MetricsAddr != "" {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Serving mapping API", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Log.Warn("Closing event bus failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("Flushing traces failed", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
