package repository

import (
	"context"
	"time"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Order, error)
	MarkCompletedIfPending(ctx context.Context, id uint64, paymentRef string, pointsEarned int64, paidAt time.Time) (int64, error)
	MarkCancelledIfPending(ctx context.Context, id uint64, at time.Time) (int64, error)
	ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Order, int64, error)
	UnitsSoldByProduct(ctx context.Context, productIDs []uint64, from, to time.Time) (map[uint64]int64, error)
	WithTx(tx *gorm.DB) OrderRepository
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

// Create inserts the order together with its items.
func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() (*model.Order, error) {
		var o model.Order
		if err := r.db.WithContext(ctx).
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			First(&o, id).Error; err != nil {
			return nil, err
		}
		return &o, nil
	})
}

// FindByIDForUpdate locks the order row for the rest of the enclosing transaction.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) MarkCompletedIfPending(ctx context.Context, id uint64, paymentRef string, pointsEarned int64, paidAt time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":            model.OrderStatusCompleted,
			"payment_reference": paymentRef,
			"points_earned":     pointsEarned,
			"paid_at":           paidAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) MarkCancelledIfPending(ctx context.Context, id uint64, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusCancelled,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Order, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.Order
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_uid = ?", uid).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_uid = ?", uid).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

type unitsRow struct {
	ProductID uint64
	Units     int64
}

// UnitsSoldByProduct sums item quantities of orders paid within [from, to).
func (r *orderRepository) UnitsSoldByProduct(ctx context.Context, productIDs []uint64, from, to time.Time) (map[uint64]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := withReadRetry(ctx, r.db, func() ([]unitsRow, error) {
		var rows []unitsRow
		err := r.db.WithContext(ctx).
			Table("order_items AS oi").
			Select("oi.product_id AS product_id, SUM(oi.quantity) AS units").
			Joins("JOIN orders AS o ON o.id = oi.order_id").
			Where("o.status = ? AND o.paid_at >= ? AND o.paid_at < ?", model.OrderStatusCompleted, from, to).
			Where("oi.product_id IN ?", productIDs).
			Group("oi.product_id").
			Scan(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = row.Units
	}
	return out, nil
}
