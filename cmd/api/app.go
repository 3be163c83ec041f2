package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-tracker/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-tracker/internal/config"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/workers"
	"github.com/comitanigiacomo/kanso-tracker/internal/metrics"
)

// app is the assembled process: stores, core services on their loop, and the
// HTTP router in front of them.
type app struct {
	router *gin.Engine
	svc    *services.TrackerService
	loop   *workers.Loop
	db     *sqlx.DB
	redis  *redis.Client
	log    *zap.Logger
}

// newApp wires every component. The loop and the day watcher run until ctx
// is cancelled.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log}
	ready := false
	defer func() {
		if !ready {
			_ = a.Close()
		}
	}()

	trackers, records, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RedisEnabled() {
		rdb, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
		} else {
			a.redis = rdb
			trackers = repository.NewCachedTrackerStore(trackers, rdb, cfg.Redis.CacheTTL, log.Named("cache"))
		}
	}

	ledger := services.NewCompletionLedger(records, services.WithLedgerLogger(log.Named("ledger")))
	a.svc = services.NewTrackerService(trackers, ledger, log.Named("trackers"))
	stats := services.NewStatsService(trackers, records)

	a.svc.Subscribe(func(c services.TrackerChange) {
		log.Debug("board changed",
			zap.String("kind", string(c.Kind)),
			zap.String("tracker_id", c.TrackerID),
			zap.Int("sections", c.Shape.Sections()),
			zap.Int("visible", c.Shape.Total()),
		)
	})

	a.loop = workers.NewLoop(cfg.QueueSize, log.Named("loop"))
	a.loop.Start(ctx)

	err = a.loop.Do(ctx, func(ctx context.Context) error {
		return a.svc.SetDate(ctx, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}

	watcher := workers.NewDayWatcher(a.loop, cfg.DayCheckInterval, time.Now, a.svc.SetDate, log.Named("day"))
	watcher.Start(ctx)

	metrics.Init()

	deps := adapterHTTP.RouterDependencies{
		TrackerHandler:    adapterHTTP.NewTrackerHandler(a.svc, a.loop),
		CompletionHandler: adapterHTTP.NewCompletionHandler(a.svc, ledger, a.loop),
		BoardHandler:      adapterHTTP.NewBoardHandler(a.svc, a.loop),
		StatsHandler:      adapterHTTP.NewStatsHandler(stats, a.loop),
		DB:                a.db,
		Redis:             a.redis,
		RateLimit:         cfg.RateLimit,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log.Named("http"),
		StartTime:         time.Now(),
	}
	if cfg.AuthEnabled() {
		tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		deps.TokenService = tokens
		deps.AuthHandler = adapterHTTP.NewAuthHandler(services.NewAuthService(cfg.Auth.PasscodeHash, tokens))
	}
	a.router = adapterHTTP.NewRouter(deps)

	ready = true
	return a, nil
}

func (a *app) openStores(ctx context.Context, cfg *config.Config) (domain.TrackerStore, domain.RecordStore, error) {
	if cfg.DB.Driver == config.DriverMemory {
		a.log.Warn("using in-memory stores, data is lost on exit")
		return repository.NewInMemoryTrackerStore(), repository.NewInMemoryRecordStore(), nil
	}

	db, err := repository.OpenDatabase(ctx, cfg.DB.Driver, cfg.DB.DSN(), a.log.Named("db"))
	if err != nil {
		return nil, nil, err
	}
	a.db = db
	return repository.NewSQLTrackerStore(db), repository.NewSQLRecordStore(db), nil
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
