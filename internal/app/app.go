package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"water-app-go/internal/config"
	"water-app-go/internal/db"
	propertydomain "water-app-go/internal/domain/property"
	"water-app-go/internal/platform/lock"
	"water-app-go/internal/platform/metrics"
	redisclient "water-app-go/internal/platform/redis"
	"water-app-go/internal/transport/httpserver"
	"water-app-go/internal/transport/httpserver/handler"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	redis      *redisclient.Client
	publisher  events.Publisher
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, publisher: events.Noop()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	stores := MemoryStores()
	if a.cfg.StorageDriver == config.StoragePostgres {
		a.log.Info("app: initializing database")
		conn, err := db.NewPostgres(ctx, a.cfg.DB, a.log)
		if err != nil {
			return err
		}
		a.db = conn
		if err := db.Migrate(conn, a.log); err != nil {
			return err
		}
		stores = PostgresStores(conn)
	} else {
		a.log.Warn("app: using in-memory storage, data is lost on restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	locker, err := a.newLocker(ctx)
	if err != nil {
		return err
	}

	if a.cfg.NATS.URL != "" {
		a.log.Info("app: connecting to nats", "url", a.cfg.NATS.URL)
		publisher, err := events.NewNATSPublisher(a.cfg.NATS.URL)
		if err != nil {
			return err
		}
		a.publisher = publisher
	}

	services, err := NewServices(a.cfg.Supply, Deps{
		Stores:    stores,
		Locker:    locker,
		Publisher: a.publisher,
		Metrics:   m,
		Log:       a.log,
	})
	if err != nil {
		return err
	}

	handlers := handler.New(services.Users, services.Properties, services.Invitations, services.Registrations, services.Usage, a.log)
	if a.db != nil {
		handlers.WithHealthCheck("postgres", func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}
	if a.redis != nil {
		handlers.WithHealthCheck("redis", a.redis.Health)
	}

	a.log.Info("app: initializing router")
	router := httpserver.NewRouter(a.cfg, handlers, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}), a.log)
	a.httpServer = httpserver.New(a.cfg, router)
	return nil
}

// newLocker picks the Redis lock when REDIS_URL is set so several instances
// share per-root allocation; otherwise locks stay in-process.
func (a *App) newLocker(ctx context.Context) (propertydomain.Locker, error) {
	client, err := redisclient.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return lock.NewKeyedMutex(), nil
	}

	a.redis = client
	locker := lock.NewRedisLocker(client.Client, a.cfg.LockTTL)
	locker.OnLost(func(key string) {
		a.log.Critical("lock: released after expiry, allocation may have raced", "key", key, "ttl", a.cfg.LockTTL)
	})
	return locker, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, db.Close(a.db))
	}
	return errors.Join(errs...)
}
