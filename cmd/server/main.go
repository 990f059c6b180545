package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fieldline/comms-backend/internal/api"
	"github.com/fieldline/comms-backend/internal/config"
	"github.com/fieldline/comms-backend/internal/database"
	"github.com/fieldline/comms-backend/internal/queue"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/smtp"
	"github.com/fieldline/comms-backend/internal/webhook"
	"github.com/fieldline/comms-backend/internal/websocket"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting comms backend")
	cfg.LogConfig(logger)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// Event fanout: AMQP when configured, otherwise a no-op
	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := queue.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("failed to connect to AMQP broker", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	// Webhook signature verification
	var verifier *webhook.Verifier
	if cfg.WebhookPublicKey != "" {
		verifier, err = webhook.NewVerifier(cfg.WebhookPublicKey,
			time.Duration(cfg.WebhookToleranceSeconds)*time.Second)
		if err != nil {
			logger.Error("invalid webhook public key", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("WEBHOOK_PUBLIC_KEY not set - webhook signatures are NOT verified")
	}

	// HTTP API
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Hub:            hub,
		Publisher:      publisher,
		Verifier:       verifier,
		Logger:         logger,
		APIKey:         cfg.APIKey,
		AllowedOrigins: origins,
		RateLimit:      int(cfg.RateLimitRequests),
		RateBurst:      cfg.RateLimitBurst,
		EnableAuth:     cfg.APIKey != "",
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("starting HTTP server", slog.String("addr", addr))
		if err := router.Start(addr); err != nil {
			logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	// SMTP intake
	memberRepo := repository.NewMemberRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	backend := smtp.NewBackend(&smtp.BackendConfig{
		MemberRepo:  memberRepo,
		CompanyRepo: companyRepo,
		CommRepo:    commRepo,
		WSHub:       hub,
		Logger:      logger,
	})

	smtpCfg := smtp.LoadServerConfigFromEnv()
	smtpCfg.Addr = fmt.Sprintf(":%d", cfg.SMTPPort)
	smtpServer := smtp.NewSecureServer(backend, smtpCfg)

	go func() {
		logger.Info("starting SMTP server", slog.String("addr", smtpCfg.Addr))
		if err := smtpServer.ListenAndServe(); err != nil {
			logger.Error("SMTP server stopped", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", slog.Any("error", err))
	}
	if err := smtpServer.Close(); err != nil {
		logger.Error("SMTP shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
}

// parseLogLevel maps a config string to a slog level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
