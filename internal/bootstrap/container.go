package bootstrap

import (
	"context"
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/handler"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/mailer"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/llm/factory"

	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	OAuthController controller.IOAuthController
	ChatController  controller.IChatController
	AdminController controller.IAdminController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	ReportService   service.IReportService

	// WebSockets
	ChatWsHandler *handler.ChatWsHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS (optional: audit events are skipped when unset)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// Redis (optional: the limiter falls back to its in-process cache)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// LLM provider
	apiKey := ""
	switch cfg.Ai.Provider {
	case "gemini":
		apiKey = cfg.Ai.GeminiAPIKey
	case "anthropic":
		apiKey = cfg.Ai.AnthropicAPIKey
	case "openai":
		apiKey = cfg.Ai.OpenAIAPIKey
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
		apiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// WebSocket hub
	wsHub := websocket.NewHub(sysLogger)
	go wsHub.Run()

	// 3. Services
	limitService := service.NewMessageLimitService(uowFactory, rdb)
	chatService := service.NewChatService(uowFactory, limitService)
	authService := service.NewAuthService(uowFactory, emailService, natsPub, cfg, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, authService, cfg, sysLogger)
	adminService := service.NewAdminService(uowFactory, sysLogger, natsPub)
	reportService := service.NewReportService(uowFactory, pubSub, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		service.ReportRequestedTopic,
		uowFactory,
		adminService,
		emailService,
		natsPub,
		sysLogger,
	)

	var resolver service.SessionResolver
	if cfg.App.SingleSessionMode {
		resolver = service.NewFixedSessionResolver(chatService)
	} else {
		resolver = service.NewExplicitSessionResolver(chatService)
	}

	pipeline := websocket.NewMessagePipeline(chatService, limitService, llmProvider, wsHub, sysLogger)
	wsHandler := handler.NewChatWsHandler(wsHub, pipeline, resolver, uowFactory, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		OAuthController: controller.NewOAuthController(oauthService, cfg),
		ChatController:  controller.NewChatController(chatService, limitService, cfg),
		AdminController: controller.NewAdminController(adminService, reportService),

		ConsumerService: consumerService,
		ReportService:   reportService,

		ChatWsHandler: wsHandler,
		WebSocketHub:  wsHub,
	}
}
