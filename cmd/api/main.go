package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/ai"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/email"
	"github.com/01moynul/storefront-golang/internal/events"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/live"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/paystack"
	"github.com/01moynul/storefront-golang/internal/ratelimit"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/store"
	"github.com/01moynul/storefront-golang/internal/store/memstore"
	"github.com/01moynul/storefront-golang/internal/store/sqlstore"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Persistence ---
	var st store.Store
	if cfg.MemoryStore() {
		logger.Warn("DB_DSN=memory: using the in-memory store, data is lost on restart")
		st = memstore.New()
	} else {
		db, err := database.OpenDB(ctx, cfg.DBDSN)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				logger.WithError(err).Fatal("Failed to apply schema")
			}
			logger.Info("Database schema applied")
		}
		st = sqlstore.New(db)
	}

	if cfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, st, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.WithError(err).Fatal("Failed to create admin account")
		}
	}

	// 2. --- Order events: admin live feed, plus Kafka when configured ---
	hub := live.NewHub(cfg.ClientOrigin, logger)
	go hub.Run(ctx)
	publishers := events.Fanout{hub}

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable, order events stay local")
		} else {
			defer kafka.Close()
			publishers = append(publishers, kafka)
			logger.WithField("brokers", strings.Join(cfg.KafkaBrokers, ",")).Info("Publishing order events to Kafka")
		}
	}

	// 3. --- Payment gateway & checkout ---
	gateway := paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.GatewayTimeout, logger)
	checkoutSvc := checkout.NewService(st, st, gateway, publishers, cfg.PaystackCallbackURL, logger)

	// 4. --- Mail ---
	var mailer email.Sender = email.LogMailer{Logger: logger}
	if cfg.SMTPEnabled() {
		mailer = email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		}, logger)
	}

	// 5. --- Chat assistant ---
	var assistant ai.Assistant = ai.CannedAssistant{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiAssistant(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, st, logger)
		if err != nil {
			logger.WithError(err).Warn("Gemini unavailable, chat uses canned replies")
		} else {
			defer gemini.Close()
			assistant = gemini
		}
	}

	// 6. --- Rate limiting ---
	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		limiter, err = ratelimit.NewFromURL(ctx, cfg.RedisURL, cfg.RateLimitPerMin, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, public endpoints are not rate limited")
			limiter = nil
		} else {
			defer limiter.Close()
		}
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Users:        st,
		Products:     st,
		Orders:       st,
		Posts:        st,
		Messages:     st,
		Subscribers:  st,
		Wishlists:    st,
		Chats:        st,
		Checkout:     checkoutSvc,
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Assistant:    assistant,
		Mailer:       mailer,
		ContactInbox: cfg.ContactInbox,
		Pricing:      cfg.Pricing,
		UploadDir:    cfg.UploadDir,
		BaseURL:      cfg.BaseURL,
		Logger:       logger,
	}

	router := routes.SetupRouter(app, routes.Options{
		ClientOrigin:   cfg.ClientOrigin,
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
		Limiter:        limiter,
		LiveFeed:       hub,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting storefront API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// ensureAdmin creates the bootstrap admin account unless the email is already registered.
func ensureAdmin(ctx context.Context, users store.Users, emailAddr, password string) error {
	if _, err := users.GetUserByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var pw models.Password
	if err := pw.Set(password); err != nil {
		return err
	}
	now := time.Now().UTC()
	err := users.CreateUser(ctx, &models.User{
		Name:         "Admin",
		Email:        emailAddr,
		PasswordHash: pw.Hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil
	}
	return err
}
