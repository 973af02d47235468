package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
)

const maxUserAgentLen = 512

type ClickInput struct {
	ProductID uint64
	UserUID   *string
	IP        string
	UserAgent string
}

type ClickService interface {
	// RecordClick reports false when the click was suppressed as a duplicate.
	RecordClick(ctx context.Context, in ClickInput) (bool, error)
}

type clickService struct {
	clicks   repository.ClickRepository
	products repository.ProductRepository
	clock    clock.Clock
	window   time.Duration
	metrics  *metrics.Metrics
	locks    keyedMutex
}

func NewClickService(clicks repository.ClickRepository, products repository.ProductRepository, clk clock.Clock, window time.Duration, m *metrics.Metrics) ClickService {
	if clk == nil {
		clk = clock.Real{}
	}
	if window <= 0 {
		window = time.Hour
	}
	return &clickService{clicks: clicks, products: products, clock: clk, window: window, metrics: m}
}

func (s *clickService) RecordClick(ctx context.Context, in ClickInput) (bool, error) {
	ip := strings.TrimSpace(in.IP)
	if ip == "" {
		return false, invalid("ip is required")
	}
	if _, err := activeProduct(ctx, s.products, in.ProductID); err != nil {
		return false, err
	}

	unlock := s.locks.Lock(strconv.FormatUint(in.ProductID, 10) + "|" + ip)
	defer unlock()

	now := s.clock.Now()
	seen, err := s.clicks.ExistsSince(ctx, in.ProductID, ip, now.Add(-s.window))
	if err != nil {
		return false, txError(err)
	}
	if seen {
		s.metrics.Click(false)
		return false, nil
	}

	ua := truncateRunes(in.UserAgent, maxUserAgentLen)
	var uid *string
	if in.UserUID != nil && strings.TrimSpace(*in.UserUID) != "" {
		v := strings.TrimSpace(*in.UserUID)
		uid = &v
	}
	if err := s.clicks.Create(ctx, &model.ClickEvent{
		ProductID: in.ProductID,
		UserUID:   uid,
		IPAddress: ip,
		UserAgent: ua,
		CreatedAt: now,
	}); err != nil {
		return false, txError(err)
	}
	s.metrics.Click(true)
	return true, nil
}
