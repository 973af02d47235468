package pricing

import (
	"errors"
	"testing"

	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func singleTwentyTiers() []model.PriceTier {
	return []model.PriceTier{
		{MinQuantity: 1, MaxQuantity: intPtr(99), UnitPrice: 1600},
		{MinQuantity: 100, MaxQuantity: intPtr(499), UnitPrice: 1400},
		{MinQuantity: 500, MaxQuantity: intPtr(999), UnitPrice: 1300},
	}
}

func TestResolve(t *testing.T) {
	tiers := singleTwentyTiers()
	tests := []struct {
		name string
		qty  int
		want int64
	}{
		{"first unit", 1, 1600},
		{"first tier max", 99, 1600},
		{"next tier min", 100, 1400},
		{"inside second tier", 101, 1400},
		{"second tier max", 499, 1400},
		{"third tier min", 500, 1300},
		{"third tier max", 999, 1300},
		{"above every tier", 1000, 1300},
		{"far above", 250000, 1300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tiers, tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnorderedTiers(t *testing.T) {
	tiers := singleTwentyTiers()
	tiers[0], tiers[2] = tiers[2], tiers[0]
	got, err := Resolve(tiers, 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), got)
}

func TestResolveOpenEnded(t *testing.T) {
	tiers := []model.PriceTier{
		{MinQuantity: 1, MaxQuantity: intPtr(9), UnitPrice: 900},
		{MinQuantity: 10, UnitPrice: 700},
	}
	got, err := Resolve(tiers, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(700), got)
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve(singleTwentyTiers(), 0)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = Resolve(singleTwentyTiers(), -3)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = Resolve(nil, 5)
	assert.True(t, errors.Is(err, ErrUnknownVariant))

	gap := []model.PriceTier{
		{MinQuantity: 1, MaxQuantity: intPtr(9), UnitPrice: 900},
		{MinQuantity: 20, MaxQuantity: intPtr(30), UnitPrice: 800},
	}
	_, err = Resolve(gap, 15)
	assert.True(t, errors.Is(err, ErrInvalidTiers))
}

func TestResolveIsRepeatable(t *testing.T) {
	tiers := singleTwentyTiers()
	first, err := Resolve(tiers, 321)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Resolve(tiers, 321)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestResolveTotalOverPositiveQuantities(t *testing.T) {
	tiers, err := Validate(singleTwentyTiers())
	require.NoError(t, err)
	for q := 1; q <= 2500; q++ {
		_, err := Resolve(tiers, q)
		require.NoErrorf(t, err, "quantity %d", q)
	}
}

func TestLineTotal(t *testing.T) {
	unit, total, err := LineTotal(singleTwentyTiers(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1300), unit)
	assert.Equal(t, int64(650000), total)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []model.PriceTier
		wantErr bool
	}{
		{"scenario table", singleTwentyTiers(), false},
		{"open last", []model.PriceTier{{MinQuantity: 1, MaxQuantity: intPtr(4), UnitPrice: 10}, {MinQuantity: 5, UnitPrice: 9}}, false},
		{"empty", nil, true},
		{"starts at two", []model.PriceTier{{MinQuantity: 2, UnitPrice: 10}}, true},
		{"gap", []model.PriceTier{{MinQuantity: 1, MaxQuantity: intPtr(4), UnitPrice: 10}, {MinQuantity: 6, UnitPrice: 9}}, true},
		{"overlap", []model.PriceTier{{MinQuantity: 1, MaxQuantity: intPtr(5), UnitPrice: 10}, {MinQuantity: 5, UnitPrice: 9}}, true},
		{"open in middle", []model.PriceTier{{MinQuantity: 1, UnitPrice: 10}, {MinQuantity: 5, UnitPrice: 9}}, true},
		{"price rises", []model.PriceTier{{MinQuantity: 1, MaxQuantity: intPtr(4), UnitPrice: 10}, {MinQuantity: 5, UnitPrice: 11}}, true},
		{"max below min", []model.PriceTier{{MinQuantity: 1, MaxQuantity: intPtr(0), UnitPrice: 10}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.tiers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTiers) {
				t.Fatalf("err=%v want ErrInvalidTiers", err)
			}
		})
	}
}

func TestValidateSorts(t *testing.T) {
	tiers := singleTwentyTiers()
	tiers[0], tiers[1] = tiers[1], tiers[0]
	sorted, err := Validate(tiers)
	require.NoError(t, err)
	assert.Equal(t, 1, sorted[0].MinQuantity)
	assert.Equal(t, 100, sorted[1].MinQuantity)
}
