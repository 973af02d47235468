package repository

import (
	"context"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	ListActiveByClass(ctx context.Context, class model.SellerClass) ([]model.Product, error)
	WithTx(tx *gorm.DB) ProductRepository
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() (*model.Product, error) {
		var p model.Product
		if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
			return nil, err
		}
		return &p, nil
	})
}

func (r *productRepository) ListActiveByClass(ctx context.Context, class model.SellerClass) ([]model.Product, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.Product, error) {
		var list []model.Product
		if err := r.db.WithContext(ctx).
			Where("seller_class = ? AND active = ?", class, true).
			Order("id ASC").
			Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}
