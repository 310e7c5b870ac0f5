package bootstrap

import (
	"context"
	"log"

	"github.com/ashebbar-dev/Ojas-EB/internal/config"
	"github.com/ashebbar-dev/Ojas-EB/internal/controller"
	"github.com/ashebbar-dev/Ojas-EB/internal/handler"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/implementation"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"
	"github.com/ashebbar-dev/Ojas-EB/internal/service"
	"github.com/ashebbar-dev/Ojas-EB/internal/websocket"
	"github.com/ashebbar-dev/Ojas-EB/pkg/embedding"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm/factory"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/fusion"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/planner"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank/cohere"

	pktNats "github.com/ashebbar-dev/Ojas-EB/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	TranscriptConsumer service.ITranscriptConsumer

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chatLogger := logger.NewIsolatedLogger("logs/chat_stream.log")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewVoyageProvider(cfg.Keys.Voyage, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: VOYAGE (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenRouter,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	reranker := cohere.NewClient(cfg.Keys.Cohere, cfg.Ai.RerankModel)

	// 4. Repositories
	chunkRepo := implementation.NewChunkRepository(db)
	sessionRepo := implementation.NewChatSessionRepository(db)
	messageRepo := implementation.NewChatMessageRepository(db)
	memoryRepo := memory.NewSessionRepository()

	// 5. Retrieval Pipeline
	executor := search.NewExecutor(chunkRepo, embeddingProvider, reranker, sysLogger, search.Config{
		MatchCount:          cfg.Retrieval.MatchCount,
		TitleMatchCount:     cfg.Retrieval.TitleMatchCount,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		RerankTopN:          cfg.Retrieval.RerankTopN,
		FallbackTopK:        cfg.Retrieval.FallbackTopK,
		CallTimeout:         cfg.Retrieval.CallTimeout,
	})
	fanOut := search.NewFanOut(executor, sysLogger)
	fuser := fusion.NewFuser(reranker, sysLogger, fusion.Config{
		TopN:            cfg.Retrieval.FusionTopN,
		FallbackTopK:    cfg.Retrieval.FusionFallbackTopK,
		SingleQueryTopK: cfg.Retrieval.SingleQueryTopK,
		CallTimeout:     cfg.Retrieval.CallTimeout,
	})
	queryPlanner := planner.NewPlanner(llmProvider, sysLogger)

	// 6. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.ExchangeTopic, sysLogger)
	transcriptConsumer := service.NewTranscriptConsumer(
		pubSub,
		cfg.App.ExchangeTopic,
		sessionRepo,
		messageRepo,
		sysLogger,
	)

	chatService := service.NewChatService(
		sessionRepo,
		messageRepo,
		memoryRepo,
		queryPlanner,
		fanOut,
		fuser,
		llmProvider,
		publisherService,
		natsPub,
		sysLogger,
		chatLogger,
	)

	// Notification worker: NATS events out to websocket subscribers
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 8. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService, cfg, chatLogger),
		TranscriptConsumer:  transcriptConsumer,
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
