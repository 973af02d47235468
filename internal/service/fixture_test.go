package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"github.com/shinyyama/goods-backend/internal/testdb"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 2026-03-04 is a Wednesday.
var testNow = time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	metrics  *metrics.Metrics
	products repository.ProductRepository
	tiers    repository.PriceTierRepository
	orders   repository.OrderRepository
	ledgerR  repository.PointLedgerRepository
	clicksR  repository.ClickRepository
	rankR    repository.RankingRepository
	ledger   *Ledger
	points   PointsService
	prices   PriceService
	orderSvc OrderService
	clicks   ClickService
	rankings RankingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	clk := clock.NewFakeClock(testNow)
	m := metrics.New(prometheus.NewRegistry())
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		clock:    clk,
		metrics:  m,
		products: repository.NewProductRepository(db),
		tiers:    repository.NewPriceTierRepository(db),
		orders:   repository.NewOrderRepository(db),
		ledgerR:  repository.NewPointLedgerRepository(db),
		clicksR:  repository.NewClickRepository(db),
		rankR:    repository.NewRankingRepository(db),
	}
	f.ledger = NewLedger(f.ledgerR, clk, m)
	f.points = NewPointsService(db, f.ledgerR, f.ledger, clk, 365*24*time.Hour, nil)
	f.prices = NewPriceService(f.products, f.tiers)
	f.orderSvc = NewOrderService(OrderParams{
		DB:         db,
		Orders:     f.orders,
		Products:   f.products,
		Tiers:      f.tiers,
		Ledger:     f.ledger,
		Node:       node,
		Clock:      clk,
		Metrics:    m,
		EarnRateBP: 200,
	})
	f.clicks = NewClickService(f.clicksR, f.products, clk, time.Hour, m)
	f.rankings = NewRankingService(RankingParams{
		Products: f.products,
		Orders:   f.orders,
		Clicks:   f.clicksR,
		Rankings: f.rankR,
		Clock:    clk,
		Location: time.UTC,
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) product(t *testing.T, name string, class model.SellerClass) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, SellerUID: "seller", SellerClass: class, Active: true}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

// singleTiers installs the (single, 20x20) table used across checkout tests.
func (f *fixture) singleTiers(t *testing.T, productID uint64) {
	t.Helper()
	_, err := f.prices.ReplaceTiers(context.Background(), productID, "single", "20x20", []TierInput{
		{MinQuantity: 1, MaxQuantity: ptr(99), UnitPrice: 1600},
		{MinQuantity: 100, MaxQuantity: ptr(499), UnitPrice: 1400},
		{MinQuantity: 500, MaxQuantity: ptr(999), UnitPrice: 1300},
	})
	require.NoError(t, err)
}

var testShipping = model.ShippingSnapshot{
	RecipientName: "Sato Hanako",
	Phone:         "090-0000-0000",
	PostalCode:    "150-0001",
	Address1:      "Shibuya-ku, Tokyo",
}

// assertReplay checks that every balance equals the previous balance plus the amount.
func assertReplay(t *testing.T, entries []model.PointLedgerEntry) {
	t.Helper()
	var bal int64
	for i, e := range entries {
		bal += e.Amount
		if e.Balance != bal {
			t.Fatalf("entry %d: balance=%d want %d", i, e.Balance, bal)
		}
		if bal < 0 {
			t.Fatalf("entry %d: negative balance %d", i, bal)
		}
	}
}
