package repository

import (
	"context"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
)

type PriceTierRepository interface {
	ListByVariant(ctx context.Context, productID uint64, printType, size string) ([]model.PriceTier, error)
	ListByProduct(ctx context.Context, productID uint64) ([]model.PriceTier, error)
	ReplaceVariant(ctx context.Context, productID uint64, printType, size string, tiers []model.PriceTier) error
	WithTx(tx *gorm.DB) PriceTierRepository
}

type priceTierRepository struct {
	db *gorm.DB
}

func NewPriceTierRepository(db *gorm.DB) PriceTierRepository {
	return &priceTierRepository{db: db}
}

func (r *priceTierRepository) WithTx(tx *gorm.DB) PriceTierRepository {
	return &priceTierRepository{db: tx}
}

func (r *priceTierRepository) ListByVariant(ctx context.Context, productID uint64, printType, size string) ([]model.PriceTier, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.PriceTier, error) {
		var list []model.PriceTier
		if err := r.db.WithContext(ctx).
			Where("product_id = ? AND print_type = ? AND size = ?", productID, printType, size).
			Order("min_quantity ASC").
			Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}

func (r *priceTierRepository) ListByProduct(ctx context.Context, productID uint64) ([]model.PriceTier, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.PriceTier, error) {
		var list []model.PriceTier
		if err := r.db.WithContext(ctx).
			Where("product_id = ?", productID).
			Order("print_type ASC, size ASC, min_quantity ASC").
			Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}

// ReplaceVariant swaps the whole tier table of one variant in a single transaction.
func (r *priceTierRepository) ReplaceVariant(ctx context.Context, productID uint64, printType, size string, tiers []model.PriceTier) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ? AND print_type = ? AND size = ?", productID, printType, size).
			Delete(&model.PriceTier{}).Error; err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		rows := make([]model.PriceTier, len(tiers))
		for i, t := range tiers {
			t.ID = 0
			t.ProductID = productID
			t.PrintType = printType
			t.Size = size
			rows[i] = t
		}
		return tx.Create(&rows).Error
	})
}
