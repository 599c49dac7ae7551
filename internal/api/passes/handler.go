package passesapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pass-app/internal/domain/passes"
	"pass-app/internal/infra/mailer"
	"pass-app/internal/infra/qr"
	"pass-app/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Lookup interface {
	Status(ctx context.Context, sessionID string) (*passes.Purchase, error)
	ByPassID(ctx context.Context, passID string) (*passes.Purchase, error)
	Verify(ctx context.Context, passID, venueID string) (bool, error)
}

type Handler struct {
	lookup  Lookup
	baseURL string
	log     *zap.Logger
}

func NewHandler(lookup Lookup, baseURL string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{lookup: lookup, baseURL: baseURL, log: log}
}

// PurchaseStatus is what the storefront's thank-you page polls.
type PurchaseStatus struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	PassID         string     `json:"pass_id"`
	SmartLinkURL   *string    `json:"smart_link_url"`
	StartDate      *string    `json:"start_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	PassType       string     `json:"pass_type"`
	ValidityDays   *int       `json:"validity_days"`
	CustomerEmail  string     `json:"customer_email"`
	CustomerPhone  *string    `json:"customer_phone"`
	PassHolderName string     `json:"pass_holder_name"`
	ReceiptURL     *string    `json:"receipt_url"`
}

func toPurchaseStatus(p *passes.Purchase) PurchaseStatus {
	out := PurchaseStatus{
		ID:             p.ID.String(),
		Status:         p.Status,
		PassID:         p.PassID,
		SmartLinkURL:   p.PassLinkURL,
		ExpiryDate:     p.ExpiryDate,
		PassType:       p.PassTier,
		ValidityDays:   p.ValidityDays,
		CustomerEmail:  p.CustomerEmail,
		CustomerPhone:  p.CustomerPhone,
		PassHolderName: p.HolderName(),
		ReceiptURL:     p.ReceiptURL,
	}
	if p.StartDate != nil {
		d := passes.FormatDate(p.StartDate)
		out.StartDate = &d
	}
	return out
}

func (h *Handler) GetPurchaseStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	p, err := h.lookup.Status(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err, "Failed to load purchase", zap.String("session_id", sessionID))
		return
	}
	c.JSON(http.StatusOK, toPurchaseStatus(p))
}

func (h *Handler) VerifyPass(c *gin.Context) {
	passID := c.Query("id")
	if passID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	valid, err := h.lookup.Verify(c.Request.Context(), passID, c.Query("venue"))
	if err != nil {
		h.fail(c, err, "Failed to verify pass", zap.String("pass_id", passID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

// QRCode renders the verify URL of an existing pass as a PNG.
func (h *Handler) QRCode(c *gin.Context) {
	passID := c.Param("id")
	if len(passID) != passes.PassIDLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pass id"})
		return
	}

	p, err := h.lookup.ByPassID(c.Request.Context(), passID)
	if err != nil {
		h.fail(c, err, "Failed to load pass", zap.String("pass_id", passID))
		return
	}

	png, err := qr.PNG(mailer.VerifyURL(h.baseURL, p.PassID), qr.DefaultSize)
	if err != nil {
		h.fail(c, err, "Failed to render QR code", zap.String("pass_id", passID))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) fail(c *gin.Context, err error, msg string, fields ...zap.Field) {
	if errors.Is(err, passes.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	logger.FromGin(c, h.log).Error(msg, append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
