package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Proton-105/spark-client/internal/api"
	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/internal/cache"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
	"github.com/Proton-105/spark-client/internal/health"
	"github.com/Proton-105/spark-client/internal/i18n"
	"github.com/Proton-105/spark-client/internal/lifecycle"
	"github.com/Proton-105/spark-client/internal/persist"
	"github.com/Proton-105/spark-client/internal/transport"
	"github.com/Proton-105/spark-client/pkg/config"
	"github.com/Proton-105/spark-client/pkg/redis"
)

type app struct {
	cfg        *config.Config
	log        *slog.Logger
	out        io.Writer
	translator i18n.Translator
	errs       *apperrors.Handler
	persistor  *persist.Persistor
	fileStore  *persist.FileStore
	spark      *api.Spark
	checker    *health.Checker
	shutdown   *lifecycle.Shutdown
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, out io.Writer) (*app, error) {
	catalog, err := i18n.Load(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	translator := catalog.Translator(cfg.Language)

	a := &app{
		cfg:        cfg,
		log:        log,
		out:        out,
		translator: translator,
		errs:       apperrors.NewHandler(log, cfg.Sentry.Enabled(), translator),
		checker:    health.NewChecker(log),
		shutdown:   lifecycle.NewShutdown(log),
	}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	a.persistor = persist.NewPersistor(store, persist.Options{
		Key:              cfg.Persist.Key,
		Allow:            cfg.Persist.Allow,
		RehydrateTimeout: cfg.Persist.RehydrateTimeout,
	}, log)

	state, err := a.persistor.Rehydrate(ctx)
	if err != nil {
		log.Warn("discarding unreadable persisted state", slog.Any("error", err))
		state = auth.Anonymous
	}

	t, err := transport.New(transport.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	}, state,
		transport.WithLogger(log),
		transport.WithUnauthenticatedHook(func(_ context.Context, apiErr *apperrors.APIError) {
			log.Warn("backend rejected the session", slog.String("message", apiErr.Message))
		}),
	)
	if err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("build transport: %w", err)
	}
	a.checker.AddCheck("api", health.NewAPIChecker(t, ""))

	cacheStore := cache.New(cache.Config{DefaultStaleTime: cfg.Cache.DefaultStaleTime}, log)
	a.spark = api.Inject(api.New(t, cacheStore, log))

	a.refreshIfExpired(ctx, state)

	return a, nil
}

func (a *app) openStore(ctx context.Context) (persist.Store, error) {
	switch a.cfg.Persist.Driver {
	case "redis":
		client, err := redis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		instrumented := redis.NewMetricsClient(client)
		a.checker.AddCheck("redis", health.NewRedisChecker(instrumented))
		a.shutdown.Register("redis", func(context.Context) error { return instrumented.Close() })
		return persist.NewRedisStore(instrumented), nil
	case "none":
		return persist.NopStore{}, nil
	default:
		fileStore, err := persist.NewFileStore(a.cfg.Persist.Path)
		if err != nil {
			return nil, err
		}
		a.fileStore = fileStore
		return fileStore, nil
	}
}

// refreshIfExpired trades a stored refresh token for a new pair when the
// access token has expired. Failures leave the stale session in place.
func (a *app) refreshIfExpired(ctx context.Context, state auth.State) {
	if !state.Authenticated() || !state.Expired(time.Now()) || state.RefreshToken == "" {
		return
	}

	tokens, err := a.spark.Auth.Refresh(ctx, state.RefreshToken)
	if err != nil {
		a.log.Warn("token refresh failed", slog.Any("error", err))
		return
	}

	if err := a.setSession(ctx, api.SessionFromTokens(tokens)); err != nil {
		a.log.Warn("failed to persist refreshed session", slog.Any("error", err))
	}
}

// setSession swaps the client to state and persists it.
func (a *app) setSession(ctx context.Context, state auth.State) error {
	a.spark = api.Inject(a.spark.Client.WithSession(state))
	return a.persistor.Save(ctx, state)
}

func (a *app) close(ctx context.Context) error {
	return a.shutdown.Execute(ctx)
}
