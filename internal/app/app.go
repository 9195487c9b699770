package app

import (
	"context"
	"fmt"
	"time"

	"github.com/countryrates/country-service/handlers"
	"github.com/countryrates/country-service/internal/config"
	"github.com/countryrates/country-service/internal/country/fetcher"
	"github.com/countryrates/country-service/internal/country/merge"
	"github.com/countryrates/country-service/internal/country/repository"
	"github.com/countryrates/country-service/internal/country/service"
	"github.com/countryrates/country-service/internal/database"
	"github.com/countryrates/country-service/internal/refreshlog"
	"github.com/countryrates/country-service/internal/storage"
	"github.com/countryrates/country-service/internal/summary"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 10 * time.Second

// App holds the wired country service and the resources behind it.
type App struct {
	Service *service.Service
	Checks  map[string]handlers.ReadyCheck
	closers []func()
}

// New connects the configured store, image store and run journal and
// assembles the service. Only a store connection failure is fatal.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Checks: map[string]handlers.ReadyCheck{}}

	repo, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	images, err := openImages(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	runs := a.openJournal(ctx, cfg)

	a.Service = service.New(service.Deps{
		Repo:     repo,
		Fetcher:  fetcher.New(cfg.Upstream.CountriesURL, cfg.Upstream.ExchangeURL, cfg.Upstream.Timeout),
		Merger:   merge.New(merge.NewUniform(cfg.GDP.MinMultiplier, cfg.GDP.MaxMultiplier)),
		Renderer: summary.NewRenderer(cfg.Upstream.FlagTimeout),
		Images:   images,
		Runs:     runs,
	})
	return a, nil
}

// DurableJournal reports whether refresh runs are journaled in Redis rather
// than in this process's memory.
func (a *App) DurableJournal() bool {
	_, ok := a.Checks["journal"]
	return ok
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Warnf("using in-memory country store; data is lost on restart")
		return repository.NewMemoryRepo(), nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		a.Checks["store"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		col := client.Database(cfg.MongoDB.Database).Collection("countries")
		repo := repository.NewMongoRepo(ctx, col)
		logger.Infof("using MongoDB country store (%s)", cfg.MongoDB.Database)
		return repo, nil

	default:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxOpenConns, connectTimeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.Checks["store"] = db.PingContext
		// table bootstrap failures are not fatal; the first refresh reports them
		if err := database.EnsureSchema(ctx, db); err != nil {
			logger.Errorf("countries table bootstrap failed: %v", err)
		}
		logger.Infof("using Postgres country store (%s:%s/%s)", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
		return repository.NewPostgresRepo(db), nil
	}
}

func openImages(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.Storage.Driver == "minio" {
		s, err := storage.NewMinIOStore(cfg.Storage.MinIO, cfg.Storage.ImageName)
		if err != nil {
			return nil, fmt.Errorf("summary image store: %w", err)
		}
		logger.Infof("summary image stored in MinIO bucket %s", cfg.Storage.MinIO.Bucket)
		return s, nil
	}
	logger.Infof("summary image stored at %s", cfg.Storage.ImagePath())
	return storage.NewFileStore(cfg.Storage.ImagePath()), nil
}

// openJournal prefers Redis and falls back to memory when it is absent or unreachable.
func (a *App) openJournal(ctx context.Context, cfg *config.Config) refreshlog.Repository {
	if cfg.Redis.Host == "" {
		return refreshlog.NewMemoryRepository(cfg.Redis.HistorySize)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s:%s), keeping refresh runs in memory: %v", cfg.Redis.Host, cfg.Redis.Port, err)
		_ = client.Close()
		return refreshlog.NewMemoryRepository(cfg.Redis.HistorySize)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.Checks["journal"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	logger.Infof("refresh runs journaled in Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	return refreshlog.NewRedisRepository(client, "", cfg.Redis.HistorySize)
}
