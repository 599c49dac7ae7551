package routes

import (
	"net/http"

	adminapi "pass-app/internal/api/admin"
	passesapi "pass-app/internal/api/passes"
	stripewebhooks "pass-app/internal/api/stripewebhook"
	"pass-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Webhook   *stripewebhooks.Handler
	Passes    *passesapi.Handler
	Admin     *adminapi.Handler
	JWTSecret string
	Logger    *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Signed raw body; no sanitizing.
	r.Any("/webhook", d.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/purchase-status", d.Passes.GetPurchaseStatus)
	r.GET("/verify-pass", d.Passes.VerifyPass)
	r.GET("/passes/:id/qr.png", d.Passes.QRCode)

	admin := r.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(d.JWTSecret, d.Logger),
		middleware.RequireRole("admin"),
		middleware.SanitizeAndCleanInputMiddleware(),
	)
	admin.GET("/purchases", d.Admin.ListPurchases)
	admin.POST("/purchases/:session_id/status", d.Admin.SetStatus)
	admin.POST("/purchases/:session_id/resend", d.Admin.Resend)
	admin.GET("/purchases/:session_id/redemptions", d.Admin.ListRedemptions)
}
