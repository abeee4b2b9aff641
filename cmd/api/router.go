package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	// Email action endpoints ở root level, không versioned: các URL này nằm
	// trong emails đã gửi đi và phải sống lâu hơn API versions.
	setupUnsubscribeRoutes(router, c)
	setupWebhookRoutes(router, c)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))
		v1.GET("/db-test", databaseTestHandler(c))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupPublicationRoutes(v1, c)
		setupPostRoutes(v1, c)
		setupSubscriptionRoutes(v1, c)
		setupBillingRoutes(v1, c)
	}

	return router
}

// ========================================
// UNSUBSCRIBE ROUTES (email links)
// ========================================
// GET là confirm flow cho người bấm link trong mail client; POST là
// one-click target từ List-Unsubscribe-Post. Token là credential duy nhất.
func setupUnsubscribeRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/unsubscribe", c.SubscriptionHandler.ConfirmUnsubscribe)
	router.POST("/unsubscribe", c.SubscriptionHandler.UnsubscribeByToken)
}

// ========================================
// WEBHOOK ROUTES (payment provider)
// ========================================
func setupWebhookRoutes(router *gin.Engine, c *container.Container) {
	router.POST("/webhooks/billing", c.BillingHandler.Webhook)
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.RefreshToken)
		auth.GET("/verify-email", c.UserHandler.VerifyEmail)
		auth.POST("/resend-verification", c.UserHandler.ResendVerification)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/me", c.UserHandler.GetProfile)
		users.PUT("/me", c.UserHandler.UpdateProfile)
	}
}

// ========================================
// PUBLICATION ROUTES
// ========================================
func setupPublicationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	publications := v1.Group("/publications")
	{
		// Public reads: :id chấp nhận UUID hoặc slug
		publications.GET("/:id", c.PublicationHandler.Get)
		publications.GET("/:id/posts", middleware.OptionalAuthMiddleware(c.JWTManager), c.PostHandler.ListByPublication)

		// Owner-only
		authed := publications.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.GET("", c.PublicationHandler.ListMine)
			authed.POST("", c.PublicationHandler.Create)
			authed.PUT("/:id", c.PublicationHandler.Update)
			authed.DELETE("/:id", c.PublicationHandler.Delete)
		}
	}
}

// ========================================
// POST ROUTES
// ========================================
func setupPostRoutes(v1 *gin.RouterGroup, c *container.Container) {
	posts := v1.Group("/posts")
	{
		// OptionalAuth: paid posts trả full body cho paying subscriber,
		// teaser cho mọi người khác; drafts chỉ author/owner thấy
		posts.GET("/:id", middleware.OptionalAuthMiddleware(c.JWTManager), c.PostHandler.Get)

		authed := posts.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			authed.POST("", c.PostHandler.Create)
			authed.PUT("/:id", c.PostHandler.Update)
			authed.DELETE("/:id", c.PostHandler.Delete)
			authed.POST("/:id/publish", c.PostHandler.SetPublished)
			authed.POST("/:id/cover", c.PostHandler.UploadCover)
		}
	}
}

// ========================================
// SUBSCRIPTION ROUTES (authenticated reader)
// ========================================
func setupSubscriptionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	subscriptions := v1.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		subscriptions.GET("", c.SubscriptionHandler.ListMine)
		subscriptions.POST("", c.SubscriptionHandler.Subscribe)
		subscriptions.DELETE("/:publicationID", c.SubscriptionHandler.Unsubscribe)
	}
}

// ========================================
// BILLING ROUTES
// ========================================
func setupBillingRoutes(v1 *gin.RouterGroup, c *container.Container) {
	billing := v1.Group("/billing")
	billing.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		billing.POST("/checkout", c.BillingHandler.StartCheckout)
		billing.GET("/portal", c.BillingHandler.Portal)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"version": appCtx.Config.App.Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil {
			dbStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

// ========================================
// DATABASE TEST HANDLER
// ========================================
func databaseTestHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Database not connected",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var version string
		if err := appCtx.DB.Pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Query failed: %v", err),
			})
			return
		}

		stats := appCtx.DB.Pool.Stat()

		c.JSON(http.StatusOK, gin.H{
			"message": "Database test successful",
			"database": gin.H{
				"postgres_version": version,
				"pool_stats": gin.H{
					"total_connections":    stats.TotalConns(),
					"idle_connections":     stats.IdleConns(),
					"acquired_connections": stats.AcquiredConns(),
					"max_connections":      stats.MaxConns(),
				},
			},
		})
	}
}
