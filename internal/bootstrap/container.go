package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"voicevibe-be/internal/config"
	"voicevibe-be/internal/controller"
	"voicevibe-be/internal/pkg/logger"
	"voicevibe-be/internal/pkg/serverutils"
	"voicevibe-be/internal/repository/memory"
	redisrepo "voicevibe-be/internal/repository/redis"
	"voicevibe-be/internal/repository/unitofwork"
	"voicevibe-be/internal/service"
	"voicevibe-be/pkg/llm/factory"
	"voicevibe-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	AuthController controller.IAuthController
	ChatController controller.IChatController
	RequireAuth    fiber.Handler

	SessionService service.ISessionService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second

	var sessionRepo store.SessionRepository
	if cfg.Session.Store == "redis" {
		opt, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Session.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionRepo = redisrepo.NewSessionRepository(rdb, ttl)
		log.Println("[INFO] Using session store: REDIS")
	} else {
		sessionRepo = memory.NewSessionRepository(ttl)
		log.Println("[INFO] Using session store: MEMORY")
	}

	llmProvider := factory.NewProvider(cfg.LLM.GroqAPIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	if cfg.LLM.GroqAPIKey == "" {
		log.Println("[WARN] GROQ_API_KEY not set, LLM running in fallback mode")
	} else {
		log.Printf("[INFO] Using LLM model: %s", cfg.LLM.Model)
	}

	if err := os.MkdirAll(cfg.App.UploadDir, 0o755); err != nil {
		log.Printf("[WARN] Failed to create upload dir: %v", err)
	}

	sessionService := service.NewSessionService(sessionRepo, cfg.Session.Secret, sysLogger)
	authService := service.NewAuthService(uowFactory, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		sysLogger,
	)

	return &Container{
		Logger:         sysLogger,
		AuthController: controller.NewAuthController(authService, sessionService, cfg.Session.TTLSeconds),
		ChatController: controller.NewChatController(chatService, sessionService, cfg.App.UploadDir),
		RequireAuth:    serverutils.SessionMiddleware(sessionService),
		SessionService: sessionService,
	}
}
