// Package app wires repositories and services for the binaries under cmd/.
package app

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/config"
	"github.com/shinyyama/goods-backend/internal/lock"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/shinyyama/goods-backend/internal/repository"
	"github.com/shinyyama/goods-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Services struct {
	Points   service.PointsService
	Prices   service.PriceService
	Orders   service.OrderService
	Clicks   service.ClickService
	Rankings service.RankingService
}

type Options struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Locker  *lock.Locker
	Clock   clock.Clock
}

func NewServices(o Options) (*Services, error) {
	cfg := o.Config
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	clk := o.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	products := repository.NewProductRepository(o.DB)
	tiers := repository.NewPriceTierRepository(o.DB)
	orders := repository.NewOrderRepository(o.DB)
	ledgerRepo := repository.NewPointLedgerRepository(o.DB)
	clicks := repository.NewClickRepository(o.DB)
	rankings := repository.NewRankingRepository(o.DB)

	ledger := service.NewLedger(ledgerRepo, clk, o.Metrics)
	expiry := time.Duration(cfg.PointsExpiryDays) * 24 * time.Hour

	return &Services{
		Points: service.NewPointsService(o.DB, ledgerRepo, ledger, clk, expiry, o.Log),
		Prices: service.NewPriceService(products, tiers),
		Orders: service.NewOrderService(service.OrderParams{
			DB:         o.DB,
			Orders:     orders,
			Products:   products,
			Tiers:      tiers,
			Ledger:     ledger,
			Node:       node,
			Clock:      clk,
			Metrics:    o.Metrics,
			EarnRateBP: cfg.PointsEarnRateBP,
		}),
		Clicks: service.NewClickService(clicks, products, clk, cfg.ClickDedupWindow, o.Metrics),
		Rankings: service.NewRankingService(service.RankingParams{
			Products: products,
			Orders:   orders,
			Clicks:   clicks,
			Rankings: rankings,
			Locker:   o.Locker,
			Clock:    clk,
			Location: cfg.Location(),
		}),
	}, nil
}
