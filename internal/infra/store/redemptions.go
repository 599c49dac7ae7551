package store

import (
	"context"
	"fmt"

	"pass-app/internal/domain/passes"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Append(ctx context.Context, red *passes.Redemption) error {
	if err := r.db.WithContext(ctx).Create(red).Error; err != nil {
		return fmt.Errorf("%w: append redemption: %v", passes.ErrPersistence, err)
	}
	return nil
}

func (r *RedemptionRepository) ListForPurchase(ctx context.Context, purchaseID uuid.UUID) ([]passes.Redemption, error) {
	var out []passes.Redemption
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("scanned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list redemptions: %v", passes.ErrPersistence, err)
	}
	return out, nil
}
