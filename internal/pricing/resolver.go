// Package pricing resolves unit prices from quantity-tiered price tables.
//
// Every function here is pure: the result depends only on the tier slice and
// the quantity, so the same code serves checkout and after-the-fact audits.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shinyyama/goods-backend/internal/model"
)

var (
	ErrUnknownVariant  = errors.New("unknown_variant")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidTiers    = errors.New("invalid_tiers")
)

// Resolve returns the unit price for quantity from one variant's tiers.
// Bounds are inclusive on both ends. A quantity above every bounded tier falls to the
// tier with the highest max (or the open-ended tier when one exists).
func Resolve(tiers []model.PriceTier, quantity int) (int64, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if len(tiers) == 0 {
		return 0, ErrUnknownVariant
	}

	var top *model.PriceTier
	for i := range tiers {
		t := &tiers[i]
		if quantity >= t.MinQuantity && (t.MaxQuantity == nil || quantity <= *t.MaxQuantity) {
			return t.UnitPrice, nil
		}
		if top == nil || higherMax(t, top) {
			top = t
		}
	}
	if top.MaxQuantity != nil && quantity > *top.MaxQuantity {
		return top.UnitPrice, nil
	}
	// quantity sits below the first tier or inside a gap; the table is malformed
	return 0, fmt.Errorf("%w: no tier covers quantity %d", ErrInvalidTiers, quantity)
}

// LineTotal is quantity × unit price.
func LineTotal(tiers []model.PriceTier, quantity int) (int64, int64, error) {
	unit, err := Resolve(tiers, quantity)
	if err != nil {
		return 0, 0, err
	}
	return unit, unit * int64(quantity), nil
}

func higherMax(a, b *model.PriceTier) bool {
	if a.MaxQuantity == nil {
		return b.MaxQuantity != nil || a.MinQuantity > b.MinQuantity
	}
	if b.MaxQuantity == nil {
		return false
	}
	return *a.MaxQuantity > *b.MaxQuantity
}

// Validate checks that tiers partition [1, ∞): sorted by min they start at 1, are
// contiguous, only the last may be open-ended, and unit prices never increase.
// It returns the tiers sorted by MinQuantity.
func Validate(tiers []model.PriceTier) ([]model.PriceTier, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: at least one tier is required", ErrInvalidTiers)
	}
	sorted := make([]model.PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })

	if sorted[0].MinQuantity != 1 {
		return nil, fmt.Errorf("%w: first tier must start at 1", ErrInvalidTiers)
	}
	for i := range sorted {
		t := sorted[i]
		if t.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: negative unit price at min %d", ErrInvalidTiers, t.MinQuantity)
		}
		if t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity {
			return nil, fmt.Errorf("%w: max below min at min %d", ErrInvalidTiers, t.MinQuantity)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.MaxQuantity == nil {
			return nil, fmt.Errorf("%w: only the last tier may be open-ended", ErrInvalidTiers)
		}
		if t.MinQuantity != *prev.MaxQuantity+1 {
			return nil, fmt.Errorf("%w: tiers must be contiguous at %d", ErrInvalidTiers, t.MinQuantity)
		}
		if t.UnitPrice > prev.UnitPrice {
			return nil, fmt.Errorf("%w: unit price rises at %d", ErrInvalidTiers, t.MinQuantity)
		}
	}
	return sorted, nil
}
