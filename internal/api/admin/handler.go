package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pass-app/internal/domain/passes"
	"pass-app/internal/logger"
	"pass-app/internal/services/purchases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PurchaseStore interface {
	List(ctx context.Context, status string, limit int) ([]passes.Purchase, error)
	SetStatus(ctx context.Context, sessionID, status string) error
}

type Resender interface {
	Resend(ctx context.Context, sessionID string) (purchases.Outcome, error)
}

type RedemptionLister interface {
	Redemptions(ctx context.Context, sessionID string) ([]passes.Redemption, error)
}

type Handler struct {
	store       PurchaseStore
	resender    Resender
	redemptions RedemptionLister
	log         *zap.Logger
}

func NewHandler(store PurchaseStore, resender Resender, redemptions RedemptionLister, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, resender: resender, redemptions: redemptions, log: log}
}

type AdminPurchase struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"stripe_session_id"`
	PassID         string     `json:"pass_id"`
	Status         string     `json:"status"`
	Email          string     `json:"customer_email"`
	PassHolderName string     `json:"pass_holder_name"`
	PassTier       string     `json:"pass_tier"`
	AmountUSD      float64    `json:"price_usd"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	PassLinkURL    *string    `json:"pass_link_url,omitempty"`
	EmailSentAt    *time.Time `json:"email_sent_at,omitempty"`
	ReceiptURL     *string    `json:"receipt_url,omitempty"`
	CreatedAt      string     `json:"created_at"`
}

type AdminRedemption struct {
	ID        string `json:"id"`
	VenueID   string `json:"venue_id"`
	Result    string `json:"result"`
	ScannedAt string `json:"scanned_at"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) ListPurchases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rows, err := h.store.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		logger.FromGin(c, h.log).Error("Failed to load purchases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load purchases"})
		return
	}

	out := make([]AdminPurchase, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, AdminPurchase{
			ID:             p.ID.String(),
			SessionID:      p.StripeSessionID,
			PassID:         p.PassID,
			Status:         p.Status,
			Email:          p.CustomerEmail,
			PassHolderName: p.HolderName(),
			PassTier:       p.PassTier,
			AmountUSD:      p.PriceUSD,
			ExpiryDate:     p.ExpiryDate,
			PassLinkURL:    p.PassLinkURL,
			EmailSentAt:    p.EmailSentAt,
			ReceiptURL:     p.ReceiptURL,
			CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// SetStatus applies a manual status override such as a refund or suspension.
func (h *Handler) SetStatus(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := h.store.SetStatus(c.Request.Context(), sessionID, req.Status)
	switch {
	case err == nil:
	case errors.Is(err, passes.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status not allowed"})
		return
	case errors.Is(err, passes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase not found"})
		return
	default:
		logger.FromGin(c, h.log).Error("Failed to update status", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	logger.FromGin(c, h.log).Info("Purchase status overridden",
		zap.String("session_id", sessionID),
		zap.String("status", req.Status),
		zap.String("admin", c.GetString("email")),
	)
	c.JSON(http.StatusOK, gin.H{"stripe_session_id": sessionID, "status": req.Status})
}

// Resend re-runs issuance if needed and mails the pass again.
func (h *Handler) Resend(c *gin.Context) {
	sessionID := c.Param("session_id")

	out, err := h.resender.Resend(c.Request.Context(), sessionID)
	switch {
	case err == nil:
	case errors.Is(err, passes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase not found"})
		return
	case errors.Is(err, passes.ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		logger.FromGin(c, h.log).Error("Resend failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Resend failed"})
		return
	}

	resp := gin.H{
		"stripe_session_id": out.SessionID,
		"pass_id":           out.PassID,
		"status":            out.Status,
		"issued":            out.Issued,
		"emailed":           out.Emailed,
	}
	if err := out.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListRedemptions(c *gin.Context) {
	sessionID := c.Param("session_id")

	rows, err := h.redemptions.Redemptions(c.Request.Context(), sessionID)
	if errors.Is(err, passes.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase not found"})
		return
	}
	if err != nil {
		logger.FromGin(c, h.log).Error("Failed to load redemptions", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load redemptions"})
		return
	}

	out := make([]AdminRedemption, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdminRedemption{
			ID:        r.ID.String(),
			VenueID:   r.VenueID,
			Result:    r.Result,
			ScannedAt: r.ScannedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}
