// Package di builds the object graph from configuration. One container per
// process; everything hangs off it so shutdown can unwind in order.
package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/api"
	"ai-persona-chat/backend/internal/emotion"
	"ai-persona-chat/backend/internal/moderation"
	"ai-persona-chat/backend/internal/ratelimit"
	"ai-persona-chat/backend/internal/service"
	"ai-persona-chat/backend/internal/store"
	"ai-persona-chat/backend/internal/ws"
	"ai-persona-chat/backend/pkg/cache"
	"ai-persona-chat/backend/pkg/config"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/pkg/router"
	"ai-persona-chat/backend/pkg/secrets"
	"ai-persona-chat/backend/pkg/validator"
	"ai-persona-chat/backend/shared/observability"
)

// Container holds the wired application.
type Container struct {
	Config  *config.Config
	Log     *logger.Logger
	LogSink *logger.RingSink
	Engine  *gin.Engine

	store    store.Store
	limiter  *ratelimit.Limiter
	provider *observability.Provider
	closers  []func(context.Context) error
}

// Build wires the whole application. Callers own Close.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// Logging: JSON to stdout, mirrored into the ring sink for /debug/logs.
	sink := logger.NewRingSink(cfg.Logging.RingSize, os.Stdout)
	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.Format == "json",
		Output: sink,
	})
	logger.SetGlobal(log)
	c.Log = log
	c.LogSink = sink

	provider, err := observability.Setup(ctx, observability.Config{
		ServiceName: "persona-chat",
		TraceStdout: cfg.Server.Env == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}
	c.provider = provider
	c.closers = append(c.closers, provider.Shutdown)

	secretMgr, err := secrets.NewManager(secrets.Config{
		Address: os.Getenv("VAULT_ADDR"),
		Token:   os.Getenv("VAULT_TOKEN"),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("setup secrets: %w", err)
	}
	if key := secretMgr.Get(ctx, secrets.KeyOpenAI); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := secretMgr.Get(ctx, secrets.KeySentiment); key != "" {
		cfg.Sentiment.APIKey = key
	}

	st, err := c.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	c.store = st

	if seeded, err := store.Seed(ctx, st); err != nil {
		return nil, fmt.Errorf("seed personas: %w", err)
	} else if seeded > 0 {
		log.Info("seeded starter personas", "count", seeded)
	}

	filter := moderation.NewFilter()
	limiter := ratelimit.New(ratelimit.Options{
		Window:          cfg.RateLimit.Window,
		MaxRequests:     cfg.RateLimit.MaxRequests,
		CleanupInterval: time.Hour,
	})
	c.limiter = limiter

	generator := ai.New(ai.Config{
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		OpenAIModel:   cfg.LLM.OpenAIModel,
		LocalURL:      cfg.LLM.LocalURL,
		LocalModel:    cfg.LLM.LocalModel,
		MaxTokens:     cfg.LLM.MaxTokens,
		Timeout:       cfg.LLM.Timeout,
		MockDelay:     cfg.LLM.MockDelay,
	}, log)

	analyzer := emotion.NewAnalyzer(emotion.AnalyzerConfig{
		URL:    cfg.Sentiment.URL,
		APIKey: cfg.Sentiment.APIKey,
	}, log)

	personas := service.NewPersonaService(st, filter, log)
	sessions := service.NewSessionService(st)
	orchestrator := service.NewChatOrchestrator(service.OrchestratorDeps{
		Store:     st,
		Limiter:   limiter,
		Filter:    filter,
		Generator: generator,
		Analyzer:  analyzer,
		Metrics:   provider.Metrics,
		Log:       log,
	})

	apiValidator, err := validator.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("setup request validator: %w", err)
	}

	c.Engine = router.New(router.Options{
		Handler: &api.Handler{
			Personas:     personas,
			Sessions:     sessions,
			Orchestrator: orchestrator,
			LogSink:      sink,
		},
		ChatStream:     ws.NewChatStream(orchestrator, cfg.Security.AllowedOrigins, log),
		Validator:      apiValidator,
		Log:            log,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		ThrottleRPS:    cfg.Security.ThrottleRPS,
		ThrottleBurst:  cfg.Security.ThrottleBurst,
		MaxBodySize:    cfg.Security.MaxBodySize,
		TrustedProxies: cfg.Security.TrustedProxies,
		DebugRoutes:    cfg.Logging.DebugLogs,
	})

	return c, nil
}

// buildStore picks the persistence backend: postgres when reachable, the
// in-memory store otherwise, optionally wrapped with a persona cache.
func (c *Container) buildStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config

	if cfg.Database.Disabled {
		c.Log.Info("database disabled, using in-memory store")
		return store.NewMemoryStore(), nil
	}

	db, err := config.NewDB()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := config.TestConnection(db); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	gormStore, err := store.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var base store.Store = gormStore
	if !cfg.Cache.Enabled {
		return base, nil
	}

	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "persona-chat:",
		})
		if err != nil {
			c.Log.Warn("redis unavailable, using in-process cache", "error", err.Error())
		} else {
			c.closers = append(c.closers, func(context.Context) error { return redisCache.Close() })
			return store.NewCached(base, redisCache), nil
		}
	}

	mem := cache.NewMemory(cfg.Cache.PurgeWindow)
	c.closers = append(c.closers, func(context.Context) error { mem.Close(); return nil })
	return store.NewCached(base, mem), nil
}

// Close unwinds background resources in reverse build order.
func (c *Container) Close(ctx context.Context) error {
	if c.limiter != nil {
		c.limiter.Stop()
	}

	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
