package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/db"
	apihttp "github.com/yungbote/rolodex-backend/internal/http"
	"github.com/yungbote/rolodex-backend/internal/observability"
	"github.com/yungbote/rolodex-backend/internal/platform/envutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apihttp.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	dbService, err := db.NewService(log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	// DB_AUTO_MIGRATE=false for deployments that migrate out of band.
	if cfg.AutoMigrate {
		if err := dbService.AutoMigrateAll(); err != nil {
			return nil, fmt.Errorf("database automigrate: %w", err)
		}
	}
	theDB := dbService.DB()

	clients, err := wireClients(log)
	if err != nil {
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		return nil, err
	}

	middleware := wireMiddleware(log, serviceset)
	handlerset := wireHandlers(theDB, log, serviceset)

	metrics := observability.Init(log)
	server := wireServer(log, cfg, handlerset, middleware, metrics, observability.OTelEnabled())

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		Server:   server,
		Metrics:  metrics,
	}, nil
}

// Run starts tracing, the metrics endpoint and collectors, and the API
// server. It blocks until ctx is cancelled and the server has drained.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: a.Cfg.ServiceName,
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		a.Metrics.StartRedisCollector(ctx, a.Log, envutil.String("REDIS_ADDR", "localhost:6379"))
		a.Metrics.StartSLOEvaluator(ctx, a.Log)
	}

	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.otelShutdown(ctx)
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
