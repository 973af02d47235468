package service

import (
	"context"

	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/pricing"
	"github.com/shinyyama/goods-backend/internal/repository"
	"github.com/shinyyama/goods-backend/internal/variant"
)

// Quote is a resolved price for one variant and quantity.
type Quote struct {
	ProductID uint64
	PrintType string
	Size      string
	Quantity  int
	UnitPrice int64
	LineTotal int64
}

// TierInput is one band of a tier table as submitted by an admin.
type TierInput struct {
	MinQuantity int
	MaxQuantity *int
	UnitPrice   int64
}

type PriceService interface {
	ResolvePrice(ctx context.Context, productID uint64, printType, size string, quantity int) (int64, error)
	Quote(ctx context.Context, productID uint64, printType, size string, quantity int) (*Quote, error)
	ReplaceTiers(ctx context.Context, productID uint64, printType, size string, tiers []TierInput) ([]model.PriceTier, error)
	ListTiers(ctx context.Context, productID uint64) ([]model.PriceTier, error)
}

type priceService struct {
	products repository.ProductRepository
	tiers    repository.PriceTierRepository
}

func NewPriceService(products repository.ProductRepository, tiers repository.PriceTierRepository) PriceService {
	return &priceService{products: products, tiers: tiers}
}

func (s *priceService) ResolvePrice(ctx context.Context, productID uint64, printType, size string, quantity int) (int64, error) {
	q, err := s.Quote(ctx, productID, printType, size, quantity)
	if err != nil {
		return 0, err
	}
	return q.UnitPrice, nil
}

func (s *priceService) Quote(ctx context.Context, productID uint64, printType, size string, quantity int) (*Quote, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := activeProduct(ctx, s.products, productID); err != nil {
		return nil, err
	}
	return quote(ctx, s.tiers, productID, printType, size, quantity)
}

// quote resolves against the tiers visible to repo, which may be bound to a transaction.
func quote(ctx context.Context, repo repository.PriceTierRepository, productID uint64, printType, size string, quantity int) (*Quote, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	key, err := variant.Parse(printType, size)
	if err != nil {
		return nil, ErrUnknownVariant
	}
	tiers, err := repo.ListByVariant(ctx, productID, key.PrintType, key.Size)
	if err != nil {
		return nil, txError(err)
	}
	unit, total, err := pricing.LineTotal(tiers, quantity)
	if err != nil {
		return nil, err
	}
	return &Quote{
		ProductID: productID,
		PrintType: key.PrintType,
		Size:      key.Size,
		Quantity:  quantity,
		UnitPrice: unit,
		LineTotal: total,
	}, nil
}

func activeProduct(ctx context.Context, repo repository.ProductRepository, id uint64) (*model.Product, error) {
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, readError(err)
	}
	if !p.Active {
		return nil, ErrNotFound
	}
	return p, nil
}

// ReplaceTiers swaps a variant's whole tier table. Orders already placed keep their stored prices.
func (s *priceService) ReplaceTiers(ctx context.Context, productID uint64, printType, size string, in []TierInput) ([]model.PriceTier, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, readError(err)
	}
	key, err := variant.Parse(printType, size)
	if err != nil {
		return nil, invalid("%v", err)
	}
	tiers := make([]model.PriceTier, 0, len(in))
	for _, t := range in {
		tiers = append(tiers, model.PriceTier{
			ProductID:   productID,
			PrintType:   key.PrintType,
			Size:        key.Size,
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			UnitPrice:   t.UnitPrice,
		})
	}
	sorted, err := pricing.Validate(tiers)
	if err != nil {
		return nil, err
	}
	if err := s.tiers.ReplaceVariant(ctx, productID, key.PrintType, key.Size, sorted); err != nil {
		return nil, txError(err)
	}
	return sorted, nil
}

func (s *priceService) ListTiers(ctx context.Context, productID uint64) ([]model.PriceTier, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, readError(err)
	}
	list, err := s.tiers.ListByProduct(ctx, productID)
	if err != nil {
		return nil, txError(err)
	}
	return list, nil
}
