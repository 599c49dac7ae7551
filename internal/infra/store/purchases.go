package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pass-app/internal/domain/passes"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Upsert writes the purchase keyed by its session id in one
// INSERT ... ON CONFLICT statement and returns the row as stored.
// On conflict the status only leaves "created"; known fields are refreshed
// and unknown (NULL/empty) incoming values keep what is already there.
func (r *PurchaseRepository) Upsert(ctx context.Context, p *passes.Purchase) (*passes.Purchase, error) {
	if p.StripeSessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", passes.ErrPersistence)
	}
	if p.PassID == "" {
		p.PassID = passes.DerivePassID(p.StripeSessionID)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_session_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status": gorm.Expr("CASE WHEN purchases.status = ? THEN excluded.status ELSE purchases.status END",
				passes.StatusCreated),
			"pass_holder_name":         gorm.Expr("COALESCE(excluded.pass_holder_name, purchases.pass_holder_name)"),
			"customer_phone":           gorm.Expr("COALESCE(excluded.customer_phone, purchases.customer_phone)"),
			"stripe_payment_intent_id": gorm.Expr("COALESCE(excluded.stripe_payment_intent_id, purchases.stripe_payment_intent_id)"),
			"customer_email":           gorm.Expr("COALESCE(NULLIF(excluded.customer_email, ''), purchases.customer_email)"),
			"pass_tier":                gorm.Expr("COALESCE(NULLIF(excluded.pass_tier, ''), purchases.pass_tier)"),
			"validity_days":            gorm.Expr("COALESCE(excluded.validity_days, purchases.validity_days)"),
			"price_usd":                gorm.Expr("CASE WHEN excluded.price_usd > 0 THEN excluded.price_usd ELSE purchases.price_usd END"),
			"start_date":               gorm.Expr("COALESCE(excluded.start_date, purchases.start_date)"),
			"expiry_date":              gorm.Expr("COALESCE(excluded.expiry_date, purchases.expiry_date)"),
			"updated_at":               gorm.Expr("excluded.updated_at"),
		}),
	}).Create(p).Error
	if err != nil {
		return nil, fmt.Errorf("%w: upsert session %s: %v", passes.ErrPersistence, p.StripeSessionID, err)
	}

	return r.FindBySessionID(ctx, p.StripeSessionID)
}

func (r *PurchaseRepository) FindBySessionID(ctx context.Context, sessionID string) (*passes.Purchase, error) {
	return r.findOne(ctx, "stripe_session_id = ?", sessionID)
}

func (r *PurchaseRepository) FindByPassID(ctx context.Context, passID string) (*passes.Purchase, error) {
	return r.findOne(ctx, "pass_id = ?", passID)
}

func (r *PurchaseRepository) findOne(ctx context.Context, query string, arg string) (*passes.Purchase, error) {
	var p passes.Purchase
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, passes.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", passes.ErrPersistence, err)
	}
	return &p, nil
}

// MarkIssued stores the issuer's answer and moves status to issued when the
// row has not already gone further.
func (r *PurchaseRepository) MarkIssued(ctx context.Context, sessionID string, pass passes.IssuedPass) error {
	return r.update(ctx, sessionID, map[string]interface{}{
		"pass_issuer_id": pass.IssuerID,
		"pass_link_url":  pass.LinkURL,
		"status":         advanceExpr(passes.StatusIssued),
	})
}

// MarkEmailSent records delivery and moves status to email_sent when the
// row has not already gone further.
func (r *PurchaseRepository) MarkEmailSent(ctx context.Context, sessionID string, at time.Time) error {
	return r.update(ctx, sessionID, map[string]interface{}{
		"email_sent_at": at,
		"status":        advanceExpr(passes.StatusEmailSent),
	})
}

func (r *PurchaseRepository) SetReceiptURL(ctx context.Context, sessionID, url string) error {
	return r.update(ctx, sessionID, map[string]interface{}{"receipt_url": url})
}

// SetStatus is the administrative override; it may leave the happy path.
func (r *PurchaseRepository) SetStatus(ctx context.Context, sessionID, status string) error {
	if !passes.IsAdminStatus(status) {
		return fmt.Errorf("%w: %q", passes.ErrInvalidStatus, status)
	}
	return r.update(ctx, sessionID, map[string]interface{}{"status": status})
}

func (r *PurchaseRepository) update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&passes.Purchase{}).
		Where("stripe_session_id = ?", sessionID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: update session %s: %v", passes.ErrPersistence, sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return passes.ErrNotFound
	}
	return nil
}

func advanceExpr(target string) clause.Expr {
	return gorm.Expr("CASE WHEN status IN ? THEN ? ELSE status END", passes.StatusesBefore(target), target)
}

// List returns purchases newest first, optionally filtered by status.
func (r *PurchaseRepository) List(ctx context.Context, status string, limit int) ([]passes.Purchase, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&passes.Purchase{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []passes.Purchase
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: list purchases: %v", passes.ErrPersistence, err)
	}
	return out, nil
}
