package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pass-app/config"
	"pass-app/database"
	adminapi "pass-app/internal/api/admin"
	passesapi "pass-app/internal/api/passes"
	stripewebhooks "pass-app/internal/api/stripewebhook"
	routes "pass-app/internal/app/http"
	"pass-app/internal/infra/mailer"
	"pass-app/internal/infra/passkit"
	stripeinfra "pass-app/internal/infra/stripe"
	"pass-app/internal/infra/store"
	"pass-app/internal/logger"
	"pass-app/internal/services/purchases"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBURL, zl)
	if err != nil {
		zl.Fatal("Database unavailable", zap.Error(err))
	}

	sender, err := newSender(cfg)
	if err != nil {
		zl.Fatal("Mail sender misconfigured", zap.Error(err), zap.String("provider", cfg.MailProvider))
	}

	purchaseRepo := store.NewPurchaseRepository(db)
	redemptionRepo := store.NewRedemptionRepository(db)

	deps := purchases.Dependencies{
		Store: purchaseRepo,
		Issuer: passkit.NewClient(passkit.Config{
			APIURL:    cfg.PassKitAPIURL,
			Token:     cfg.PassKitToken,
			ProgramID: cfg.PassKitProgramID,
			ClassID:   cfg.PassKitClassID,
			Timeout:   cfg.PassKitTimeout,
		}),
		Notifier: mailer.NewPassMailer(sender, cfg.PublicBaseURL).WithTimeout(cfg.MailTimeout),
		Logger:   zl.Named("reconciler"),
	}
	if cfg.StripeSecretKey != "" {
		deps.Receipts = stripeinfra.NewReceiptFinder(cfg.StripeSecretKey)
	} else {
		zl.Info("STRIPE_SECRET_KEY not set, receipt links disabled")
	}
	reconciler := purchases.NewReconciler(deps)
	lookup := purchases.NewLookup(purchaseRepo, redemptionRepo, zl.Named("lookup"))

	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(zl))
	if cfg.CORSOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.CORSOrigin},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	routes.RegisterRoutes(r, routes.Deps{
		Webhook:   stripewebhooks.NewHandler(stripeinfra.NewVerifier(cfg.StripeWebhookSecret), reconciler, zl.Named("webhook")),
		Passes:    passesapi.NewHandler(lookup, cfg.PublicBaseURL, zl),
		Admin:     adminapi.NewHandler(purchaseRepo, reconciler, lookup, zl.Named("admin")),
		JWTSecret: cfg.JWTSecret,
		Logger:    zl,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("Listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newSender(cfg *config.Config) (mailer.Sender, error) {
	if cfg.MailProvider == "sendgrid" {
		return mailer.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
