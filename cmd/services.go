package main

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/evidence"
	"github.com/sells-group/factcheck/internal/media"
	"github.com/sells-group/factcheck/internal/monitoring"
	"github.com/sells-group/factcheck/internal/pipeline"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/store"
	"github.com/sells-group/factcheck/internal/verdict"
	"github.com/sells-group/factcheck/pkg/brave"
	"github.com/sells-group/factcheck/pkg/jina"
	"github.com/sells-group/factcheck/pkg/llm"
)

// serviceEnv holds the store and the pipeline built on it.
type serviceEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Breakers *resilience.Breakers
}

// Close releases the store.
func (e *serviceEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initServices builds the store, collaborators and pipeline from c. Callers
// should defer env.Close().
func initServices(ctx context.Context, c *config.Config) (*serviceEnv, error) {
	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	bcfg := resilience.BreakerConfigFrom(c.Resilience.FailureThreshold, c.Resilience.ResetTimeoutSecs)
	bcfg.OnStateChange = func(name string, from, to resilience.State) {
		resilience.LogStateChange(name, from, to)
		monitoring.SetBreakerState(name, int(to))
	}
	breakers := resilience.NewBreakers(bcfg)

	gatherer := evidence.NewAggregator(initSearcher(c),
		evidence.WithTimeout(c.Search.Timeout()),
		evidence.WithBreaker(breakers.Get("search")),
	)

	client, visionModel, verdictModel := initModelClient(c)
	analyzer := media.NewAnalyzer(client, visionModel,
		media.WithTimeout(c.Gateway.VisionTimeout()),
		media.WithMaxTokens(c.Gateway.MaxTokens),
		media.WithBreaker(breakers.Get("vision")),
	)
	generator := verdict.NewGenerator(client, verdictModel,
		verdict.WithTimeout(c.Gateway.VerdictTimeout()),
		verdict.WithMaxTokens(c.Gateway.MaxTokens),
		verdict.WithBreaker(breakers.Get("verdict")),
	)

	retry := resilience.RetryConfigFrom(c.Resilience.StoreRetryAttempts, c.Resilience.StoreRetryBackoffMsec)
	p := pipeline.New(st, gatherer, analyzer, generator, pipeline.WithStoreRetry(retry))

	return &serviceEnv{Store: st, Pipeline: p, Breakers: breakers}, nil
}

// initStore opens the configured status store and applies its schema.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch sc.Driver {
	case "", "memory":
		st = store.NewMemory()
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "factcheck.db"
		}
		st, err = store.NewSQLite(dsn, sc.RecordTTL())
	case "postgres":
		st, err = store.NewPostgres(ctx, sc.DatabaseURL, sc.RecordTTL(), nil)
	case "redis":
		st, err = store.NewRedis(ctx, store.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			TTL:      sc.RecordTTL(),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", sc.Driver)
	}

	if m, ok := st.(store.Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	zap.L().Info("status store ready", zap.String("driver", sc.Driver))
	return st, nil
}

// initSearcher returns the configured search provider, or nil when its key
// is missing.
func initSearcher(c *config.Config) evidence.Searcher {
	var s evidence.Searcher
	switch c.Search.Provider {
	case "jina":
		if c.Jina.Key == "" {
			zap.L().Warn("FACTCHECK_JINA_KEY not set, evidence search disabled")
			return nil
		}
		s = evidence.NewJinaSearcher(jina.NewClient(c.Jina.Key, jina.WithSearchBaseURL(c.Jina.SearchBaseURL)))
	default:
		if c.Search.Key == "" {
			zap.L().Warn("FACTCHECK_SEARCH_KEY not set, evidence search disabled")
			return nil
		}
		s = evidence.NewBraveSearcher(brave.NewClient(c.Search.Key,
			brave.WithBaseURL(c.Search.BaseURL),
			brave.WithCount(c.Search.Count),
		))
	}
	return evidence.RateLimited(s, c.Search.RatePerSec, c.Search.Burst)
}

// initModelClient returns the chat-model client and the model names to use
// for vision and verdict calls. The client is nil when no key is set.
func initModelClient(c *config.Config) (llm.Client, string, string) {
	switch c.Gateway.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			zap.L().Warn("FACTCHECK_ANTHROPIC_KEY not set, model calls disabled")
			return nil, c.Anthropic.VisionModel, c.Anthropic.VerdictModel
		}
		return llm.NewAnthropicClient(c.Anthropic.Key, option.WithMaxRetries(0)),
			c.Anthropic.VisionModel, c.Anthropic.VerdictModel
	default:
		if c.Gateway.Key == "" {
			zap.L().Warn("FACTCHECK_GATEWAY_KEY not set, model calls disabled")
			return nil, c.Gateway.VisionModel, c.Gateway.VerdictModel
		}
		return llm.NewOpenAIClient(c.Gateway.Key, c.Gateway.BaseURL),
			c.Gateway.VisionModel, c.Gateway.VerdictModel
	}
}
