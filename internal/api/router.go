package api

import (
	"log/slog"

	"github.com/fieldline/comms-backend/internal/api/handlers"
	"github.com/fieldline/comms-backend/internal/api/middleware"
	"github.com/fieldline/comms-backend/internal/inbox"
	"github.com/fieldline/comms-backend/internal/logger"
	"github.com/fieldline/comms-backend/internal/metrics"
	"github.com/fieldline/comms-backend/internal/queue"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/webhook"
	"github.com/fieldline/comms-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB        *gorm.DB
	Hub       *websocket.Hub
	Publisher queue.Publisher
	Verifier  *webhook.Verifier
	Logger    *slog.Logger
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
	EnableAuth     bool     // Enable API key authentication
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins))

	// 4. Per-IP rate limiting
	e.Use(middleware.RateLimiter(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// 6. Prometheus request instrumentation
	e.Use(metrics.Middleware())

	// 7. Per-request memoization cache for inbox resolution
	e.Use(middleware.RequestCache())

	// Initialize repositories
	companyRepo := repository.NewCompanyRepository(cfg.DB)
	memberRepo := repository.NewMemberRepository(cfg.DB)
	commRepo := repository.NewCommunicationRepository(cfg.DB)

	// Initialize services
	inboxService := inbox.NewService(commRepo, memberRepo, cfg.Logger)
	ingestor := webhook.NewIngestor(commRepo, companyRepo, cfg.Hub, cfg.Publisher, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	inboxHandler := handlers.NewInboxHandler(inboxService)
	commHandler := handlers.NewCommunicationHandler(commRepo)
	companyHandler := handlers.NewCompanyHandler(companyRepo)
	memberHandler := handlers.NewMemberHandler(memberRepo, companyRepo)
	webhookHandler := handlers.NewWebhookHandler(cfg.Verifier, ingestor, logger.NewSecurityLogger())
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.AllowedOrigins, cfg.Logger)

	// Health and operational routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", metrics.HandlerFunc())

	// Signed provider deliveries (signature-authenticated, per tenant)
	e.POST("/webhooks/telnyx/:company_id", webhookHandler.Receive)

	// WebSocket notification feed
	e.GET("/ws", wsHandler.Serve)

	// API routes
	api := e.Group("/api")

	apiKey := ""
	if cfg.EnableAuth {
		apiKey = cfg.APIKey
	}
	api.Use(middleware.APIKeyAuth(apiKey, cfg.Logger))

	// Inbox resolution
	api.GET("/inbox", inboxHandler.Get)

	// Company routes
	companies := api.Group("/companies")
	companies.POST("", companyHandler.Create)
	companies.GET("", companyHandler.List)
	companies.GET("/:id", companyHandler.Get)
	companies.DELETE("/:id", companyHandler.Delete)

	// Team member routes (nested under companies)
	companies.POST("/:company_id/members", memberHandler.Create)
	companies.GET("/:company_id/members", memberHandler.List)
	companies.GET("/:company_id/members/:id", memberHandler.Get)
	companies.PATCH("/:company_id/members/:id/deactivate", memberHandler.Deactivate)

	// Communication routes
	comms := api.Group("/communications")
	comms.POST("", commHandler.Create)
	comms.GET("/:id", commHandler.Get)
	comms.PATCH("/:id/read", commHandler.MarkRead)
	comms.PATCH("/:id/unread", commHandler.MarkUnread)
	comms.PATCH("/:id/archive", commHandler.Archive)
	comms.PATCH("/:id/unarchive", commHandler.Unarchive)
	comms.PATCH("/:id/star", commHandler.Star)
	comms.PATCH("/:id/unstar", commHandler.Unstar)
	comms.PATCH("/:id/snooze", commHandler.Snooze)
	comms.PATCH("/:id/unsnooze", commHandler.Unsnooze)
	comms.PATCH("/:id/category", commHandler.Categorize)
	comms.PATCH("/:id/spam", commHandler.MarkSpam)
	comms.PATCH("/:id/not-spam", commHandler.MarkNotSpam)
	comms.DELETE("/:id", commHandler.Delete)
	comms.PATCH("/:id/restore", commHandler.Restore)

	return e
}
