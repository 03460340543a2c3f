package bootstrap

import (
	"context"
	"fmt"
	"log"

	"video-summary-be/internal/config"
	"video-summary-be/internal/constant"
	"video-summary-be/internal/controller"
	"video-summary-be/internal/pkg/logger"
	"video-summary-be/internal/repository/contract"
	"video-summary-be/internal/repository/memory"
	"video-summary-be/internal/repository/rediscache"
	"video-summary-be/internal/service"
	"video-summary-be/pkg/chunker"
	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/llm/factory"
	"video-summary-be/pkg/summarizer"
	"video-summary-be/pkg/transcript"

	pktNats "video-summary-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	SummaryController controller.ISummaryController

	// Background Services (Exposed for main.go to run), nil when EVENT_BUS=none
	ConsumerService service.IConsumerService

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Language Model
	apiKey := cfg.LLM.APIKey
	if cfg.LLM.Provider == factory.ProviderCloudflare {
		apiKey = cfg.LLM.CloudflareAPIKey
	}
	provider, err := factory.NewLanguageModel(context.Background(), factory.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    apiKey,
		AccountID: cfg.LLM.CloudflareAccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	model := llm.NewRetryingModel(cfg.LLM.Provider, provider, llm.RetryPolicy{
		Attempts:    cfg.LLM.RetryAttempts,
		BackoffBase: cfg.LLM.RetryBackoff,
		BackoffMax:  cfg.LLM.RetryBackoffMax,
		Timeout:     cfg.LLM.Timeout,
	}, func(attempt int, err error) {
		sysLogger.Warn("LLM", "Retrying model invocation", map[string]interface{}{
			"provider": cfg.LLM.Provider,
			"attempt":  attempt,
			"error":    err.Error(),
		})
	})

	// 3. Pipeline
	chunks, err := chunker.New(cfg.Summary.ChunkSize, cfg.Summary.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	summarizers := []summarizer.Summarizer{
		summarizer.NewMapReduceSummarizer(model, summarizer.MapReduceConfig{
			Question:       constant.SummaryQuestionPrompt,
			Combine:        constant.SummaryCombinePrompt,
			Chunker:        chunks,
			MaxConcurrency: cfg.Summary.MaxConcurrency,
		}, sysLogger),
		summarizer.NewRefineSummarizer(model, summarizer.RefineConfig{
			Initial: constant.SummaryRefineInitialPrompt,
			Refine:  constant.SummaryRefinePrompt,
		}, sysLogger),
	}
	source := transcript.NewYouTubeSource(cfg.Transcript.BaseURL, cfg.Transcript.Language)

	// 4. Infrastructure
	cache := c.newCache(cfg.Cache)
	publisher := c.newEventBus(cfg)

	// 5. Services
	summaryService := service.NewSummaryService(
		source,
		chunks,
		summarizers,
		cfg.Summary.Strategy,
		cache,
		publisher,
		sysLogger,
	)

	// 6. Controllers
	c.SummaryController = controller.NewSummaryController(summaryService, sysLogger)
	return c, nil
}

func (c *Container) newCache(cfg config.CacheConfig) contract.SummaryCacheRepository {
	switch cfg.Driver {
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			// Cache errors are logged per request and never fail one
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		log.Printf("[INFO] Using summary cache: REDIS (ttl %s)", cfg.TTL)
		return rediscache.NewSummaryCacheRepository(rdb, cfg.TTL)
	case "none":
		log.Printf("[INFO] Summary cache disabled")
		return nil
	default:
		log.Printf("[INFO] Using summary cache: MEMORY (ttl %s)", cfg.TTL)
		return memory.NewSummaryCacheRepository(cfg.TTL)
	}
}

func (c *Container) newEventBus(cfg *config.Config) service.IPublisherService {
	switch cfg.Events.Bus {
	case "nats":
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			return service.NewNoopPublisherService()
		}
		c.closers = append(c.closers, natsPub.Close)

		natsSub, err := pktNats.NewSubscriber(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.closers = append(c.closers, natsSub.Close)
			c.ConsumerService = service.NewNatsConsumerService(natsSub, logger.NewIsolatedLogger(cfg.App.AuditLogFilePath))
		}
		return service.NewNatsPublisherService(natsPub)
	case "none":
		return service.NewNoopPublisherService()
	default:
		pubSub := gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewStdLogger(false, false),
		)
		c.closers = append(c.closers, func() { _ = pubSub.Close() })
		c.ConsumerService = service.NewConsumerService(
			pubSub,
			cfg.Events.Topic,
			logger.NewIsolatedLogger(cfg.App.AuditLogFilePath),
		)
		return service.NewPublisherService(cfg.Events.Topic, pubSub)
	}
}

// Close releases connections in reverse order and flushes the logger.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
