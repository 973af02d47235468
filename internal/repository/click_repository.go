package repository

import (
	"context"
	"time"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
)

type ClickRepository interface {
	Create(ctx context.Context, e *model.ClickEvent) error
	ExistsSince(ctx context.Context, productID uint64, ip string, since time.Time) (bool, error)
	CountByProduct(ctx context.Context, productIDs []uint64, from, to time.Time) (map[uint64]int64, error)
}

type clickRepository struct {
	db *gorm.DB
}

func NewClickRepository(db *gorm.DB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Create(ctx context.Context, e *model.ClickEvent) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *clickRepository) ExistsSince(ctx context.Context, productID uint64, ip string, since time.Time) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() (bool, error) {
		var ids []uint64
		if err := r.db.WithContext(ctx).
			Model(&model.ClickEvent{}).
			Where("product_id = ? AND ip_address = ? AND created_at >= ?", productID, ip, since).
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return false, err
		}
		return len(ids) > 0, nil
	})
}

type clickCountRow struct {
	ProductID uint64
	Clicks    int64
}

// CountByProduct counts clicks within [from, to).
func (r *clickRepository) CountByProduct(ctx context.Context, productIDs []uint64, from, to time.Time) (map[uint64]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := withReadRetry(ctx, r.db, func() ([]clickCountRow, error) {
		var rows []clickCountRow
		err := r.db.WithContext(ctx).
			Model(&model.ClickEvent{}).
			Select("product_id, COUNT(*) AS clicks").
			Where("product_id IN ? AND created_at >= ? AND created_at < ?", productIDs, from, to).
			Group("product_id").
			Scan(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row.Clicks
	}
	return out, nil
}
