package purchases

import (
	"context"
	"strings"
	"time"

	"pass-app/internal/domain/passes"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReadStore interface {
	FindBySessionID(ctx context.Context, sessionID string) (*passes.Purchase, error)
	FindByPassID(ctx context.Context, passID string) (*passes.Purchase, error)
}

type RedemptionStore interface {
	Append(ctx context.Context, r *passes.Redemption) error
	ListForPurchase(ctx context.Context, purchaseID uuid.UUID) ([]passes.Redemption, error)
}

// Lookup serves the read side: order status and venue checks.
type Lookup struct {
	purchases   ReadStore
	redemptions RedemptionStore
	log         *zap.Logger
	now         func() time.Time
}

func NewLookup(purchases ReadStore, redemptions RedemptionStore, log *zap.Logger) *Lookup {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lookup{purchases: purchases, redemptions: redemptions, log: log, now: time.Now}
}

func (l *Lookup) Status(ctx context.Context, sessionID string) (*passes.Purchase, error) {
	return l.purchases.FindBySessionID(ctx, strings.TrimSpace(sessionID))
}

func (l *Lookup) ByPassID(ctx context.Context, passID string) (*passes.Purchase, error) {
	return l.purchases.FindByPassID(ctx, strings.TrimSpace(passID))
}

// Verify reports whether the pass is valid right now. Validity depends only on
// the stored expiry and the clock. When venueID is set the scan is appended to
// the redemption log; a failed append does not change the answer.
func (l *Lookup) Verify(ctx context.Context, passID, venueID string) (bool, error) {
	p, err := l.purchases.FindByPassID(ctx, strings.TrimSpace(passID))
	if err != nil {
		return false, err
	}

	now := l.now()
	valid := p.IsValidAt(now)

	if venueID = strings.TrimSpace(venueID); venueID != "" && l.redemptions != nil {
		red := &passes.Redemption{
			PurchaseID: p.ID,
			VenueID:    venueID,
			ScannedAt:  now,
			Result:     scanResult(p, valid),
		}
		if err := l.redemptions.Append(ctx, red); err != nil {
			l.log.Warn("Failed to record redemption",
				zap.String("pass_id", p.PassID),
				zap.String("venue_id", venueID),
				zap.Error(err),
			)
		}
	}
	return valid, nil
}

func (l *Lookup) Redemptions(ctx context.Context, sessionID string) ([]passes.Redemption, error) {
	p, err := l.purchases.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return l.redemptions.ListForPurchase(ctx, p.ID)
}

func scanResult(p *passes.Purchase, valid bool) string {
	switch {
	case p.Status == passes.StatusSuspended || p.Status == passes.StatusRefunded:
		return passes.ScanSuspended
	case valid:
		return passes.ScanValid
	default:
		return passes.ScanExpired
	}
}
