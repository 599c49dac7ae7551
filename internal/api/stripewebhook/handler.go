package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"pass-app/internal/domain/passes"
	stripeinfra "pass-app/internal/infra/stripe"
	"pass-app/internal/logger"
	"pass-app/internal/services/purchases"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
)

const (
	maxBodyBytes          = 65536
	defaultProcessTimeout = 30 * time.Second
)

type Verifier interface {
	Verify(payload []byte, sigHeader string) (stripe.Event, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, ev passes.CompletionEvent) purchases.Outcome
}

type Handler struct {
	verifier   Verifier
	reconciler Reconciler
	log        *zap.Logger
	timeout    time.Duration
}

func NewHandler(v Verifier, r Reconciler, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{verifier: v, reconciler: r, log: log, timeout: defaultProcessTimeout}
}

// StripeWebhook is mounted for every method so anything but POST gets a 405
// in the same JSON shape as the rest of the API.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}
	log := logger.FromGin(c, h.log)

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn("Stripe signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	if !stripeinfra.IsCompletion(string(event.Type)) {
		log.Debug("Ignoring event")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ev, err := stripeinfra.CompletionFromEvent(event)
	if err != nil {
		// Stripe would redeliver the same unreadable body forever.
		log.Error("Cannot decode checkout session", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// The sender hanging up must not abort a payment that is already verified.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
	defer cancel()

	out := h.reconciler.Reconcile(ctx, ev)
	if err := out.Err(); err != nil {
		log.Warn("Reconciliation finished with errors",
			zap.String("session_id", out.SessionID),
			zap.String("status", out.Status),
			zap.Bool("persisted", out.Persisted),
			zap.Bool("issued", out.Issued),
			zap.Bool("emailed", out.Emailed),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
