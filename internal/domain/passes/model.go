package passes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HolderPlaceholder is shown wherever a purchase carries no holder name.
const HolderPlaceholder = "Valued Customer"

type Purchase struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	StripeSessionID       string  `gorm:"column:stripe_session_id;not null;uniqueIndex:idx_purchases_stripe_session_id"`
	StripePaymentIntentID *string `gorm:"column:stripe_payment_intent_id"`

	CustomerEmail  string  `gorm:"column:customer_email;not null"`
	CustomerPhone  *string `gorm:"column:customer_phone"`
	PassHolderName *string `gorm:"column:pass_holder_name"`

	PassTier     string  `gorm:"column:pass_tier;not null"`
	ValidityDays *int    `gorm:"column:validity_days"`
	PriceUSD     float64 `gorm:"column:price_usd;type:numeric(10,2);not null"`

	StartDate  *time.Time `gorm:"column:start_date"`
	ExpiryDate *time.Time `gorm:"column:expiry_date"`

	Status string `gorm:"column:status;type:varchar(20);not null;index"`

	PassID       string  `gorm:"column:pass_id;not null;uniqueIndex:idx_purchases_pass_id"`
	PassIssuerID *string `gorm:"column:pass_issuer_id"`
	PassLinkURL  *string `gorm:"column:pass_link_url"`

	EmailSentAt *time.Time `gorm:"column:email_sent_at"`
	ReceiptURL  *string    `gorm:"column:receipt_url"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HolderName returns the name printed on the pass.
func (p *Purchase) HolderName() string {
	if p.PassHolderName == nil || *p.PassHolderName == "" {
		return HolderPlaceholder
	}
	return *p.PassHolderName
}

// IsValidAt reports whether the pass is still valid at now. A purchase
// without an expiry was never fully configured and is never valid.
func (p *Purchase) IsValidAt(now time.Time) bool {
	if p.ExpiryDate == nil {
		return false
	}
	return !p.ExpiryDate.Before(now)
}

// Scan results recorded on a Redemption.
const (
	ScanValid     = "valid"
	ScanExpired   = "expired"
	ScanSuspended = "suspended"
	ScanNotFound  = "not_found"
)

type Redemption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Purchase   *Purchase `gorm:"constraint:OnDelete:CASCADE"`
	VenueID    string    `gorm:"column:venue_id;not null"`
	ScannedAt  time.Time `gorm:"column:scanned_at;not null"`
	Result     string    `gorm:"column:result;type:varchar(20);not null"`
	Meta       *string   `gorm:"column:meta;type:jsonb"`
}

func (Redemption) TableName() string {
	return "redemptions"
}

func (r *Redemption) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
