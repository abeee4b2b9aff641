package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"newsletter-backend/internal/config"
	infraCache "newsletter-backend/internal/infrastructure/cache"
	"newsletter-backend/internal/infrastructure/database"
	"newsletter-backend/internal/infrastructure/email"
	"newsletter-backend/internal/infrastructure/storage"
	"newsletter-backend/pkg/actiontoken"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/jwt"

	"newsletter-backend/internal/domains/billing"
	billingHandler "newsletter-backend/internal/domains/billing/handler"
	billingProvider "newsletter-backend/internal/domains/billing/provider"
	billingService "newsletter-backend/internal/domains/billing/service"
	"newsletter-backend/internal/domains/notification"
	notificationRepo "newsletter-backend/internal/domains/notification/repository"
	notificationService "newsletter-backend/internal/domains/notification/service"
	"newsletter-backend/internal/domains/post"
	postHandler "newsletter-backend/internal/domains/post/handler"
	postRepo "newsletter-backend/internal/domains/post/repository"
	postService "newsletter-backend/internal/domains/post/service"
	"newsletter-backend/internal/domains/publication"
	publicationHandler "newsletter-backend/internal/domains/publication/handler"
	publicationRepo "newsletter-backend/internal/domains/publication/repository"
	publicationService "newsletter-backend/internal/domains/publication/service"
	"newsletter-backend/internal/domains/subscription"
	subscriptionHandler "newsletter-backend/internal/domains/subscription/handler"
	subscriptionRepo "newsletter-backend/internal/domains/subscription/repository"
	subscriptionService "newsletter-backend/internal/domains/subscription/service"
	"newsletter-backend/internal/domains/user"
	userHandler "newsletter-backend/internal/domains/user/handler"
	userRepo "newsletter-backend/internal/domains/user/repository"
	userService "newsletter-backend/internal/domains/user/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application.
// Root của dependency graph; mọi field là singleton trong app lifetime.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	TokenCodec  *actiontoken.Codec
	AsynqClient *asynq.Client
	Storage     *storage.MinIOStorage
	Email       *email.SMTPService
	Billing     billing.Provider

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	UserRepo         user.Repository
	PublicationRepo  publication.Repository
	PostRepo         post.Repository
	SubscriptionRepo subscription.Repository
	DeliveryRepo     notification.Repository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	UserService         user.Service
	PublicationService  publication.Service
	PostService         post.Service
	SubscriptionService subscription.Service
	NotificationService notification.Service
	BillingService      billing.Service

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	UserHandler         *userHandler.UserHandler
	PublicationHandler  *publicationHandler.PublicationHandler
	PostHandler         *postHandler.PostHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	BillingHandler      *billingHandler.BillingHandler
}

// NewContainer tạo và initialize toàn bộ dependency graph.
//
// Thứ tự initialization:
// 1. Config (không phụ thuộc gì)
// 2. Infrastructure (DB, Redis, MinIO, asynq, SMTP) - phụ thuộc Config
// 3. Repositories - phụ thuộc Infrastructure
// 4. Services - phụ thuộc Repositories
// 5. Handlers - phụ thuộc Services
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis failure không critical - cache degrade, app vẫn chạy
			log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
	}
	c.Cache = redisCache

	// ========================================
	// STEP 4: TOKENS, QUEUE, STORAGE, EMAIL
	// ========================================
	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)
	c.TokenCodec = actiontoken.NewCodec(
		cfg.Unsubscribe.Secret,
		time.Duration(cfg.Unsubscribe.TTL)*time.Hour,
	)

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Println("✅ Asynq client initialized")

	minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		// Cover uploads degrade; everything else works without MinIO
		log.Printf("⚠️  MinIO connection failed (non-critical): %v", err)
	}
	c.Storage = minioStorage

	c.Email = email.NewSMTPService(cfg.Email)
	c.Billing = billingProvider.NewLocalProvider(
		cfg.Billing.APIKey,
		cfg.Billing.WebhookSecret,
		cfg.Billing.SuccessURL,
		cfg.Billing.CancelURL,
	)

	// ========================================
	// STEP 5: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 6: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices()
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 7: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache)
	c.PublicationRepo = publicationRepo.NewPostgresRepository(pool, c.Cache)
	c.PostRepo = postRepo.NewPostgresPostRepository(pool, c.Cache)
	c.SubscriptionRepo = subscriptionRepo.NewPostgresSubscriptionRepository(pool)
	c.DeliveryRepo = notificationRepo.NewPostgresDeliveryRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, c.AsynqClient)
	c.PublicationService = publicationService.NewPublicationService(c.PublicationRepo)
	c.PostService = postService.NewPostService(c.PostRepo, c.PublicationRepo, c.SubscriptionRepo, c.Storage, c.AsynqClient)
	c.SubscriptionService = subscriptionService.NewSubscriptionService(
		c.SubscriptionRepo,
		c.PublicationRepo,
		c.UserRepo,
		c.TokenCodec,
	)
	c.NotificationService = notificationService.NewNotificationService(
		c.DeliveryRepo,
		c.PostRepo,
		c.PublicationRepo,
		c.SubscriptionRepo,
		c.Email,
		c.TokenCodec,
		cfg.App.BaseURL,
		cfg.App.WebURL,
	)
	c.BillingService = billingService.NewBillingService(
		c.Billing,
		c.PublicationRepo,
		c.SubscriptionRepo,
		c.UserRepo,
		cfg.Billing,
	)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.PublicationHandler = publicationHandler.NewPublicationHandler(c.PublicationService)
	c.PostHandler = postHandler.NewPostHandler(c.PostService)
	c.SubscriptionHandler = subscriptionHandler.NewSubscriptionHandler(c.SubscriptionService, c.Config.App.WebURL)
	c.BillingHandler = billingHandler.NewBillingHandler(c.BillingService)
}

// Close giải phóng connections theo thứ tự ngược với init
func (c *Container) Close() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}
	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Failed to close redis: %v", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
