package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/lock"
	"github.com/shinyyama/goods-backend/internal/logger"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	rankingLockTTL      = 5 * time.Minute
	defaultRankingLimit = 20
	maxRankingLimit     = 100
)

// RankingEntry is one row of a weekly leaderboard.
type RankingEntry struct {
	ProductID  uint64
	Rank       int
	SalesCount int64
	ClickCount int64
	Score      float64
}

type WeeklyRanking struct {
	SellerClass model.SellerClass
	WeekStart   time.Time
	Entries     []RankingEntry
}

type RankingService interface {
	ComputeWeeklyRanking(ctx context.Context, class model.SellerClass, weekStart time.Time) (int, error)
	RecomputeAll(ctx context.Context) error
	WeeklyRanking(ctx context.Context, class model.SellerClass, weekStart *time.Time, limit int) (*WeeklyRanking, error)
	// Location is the store time zone week boundaries are computed in.
	Location() *time.Location
}

type RankingParams struct {
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Clicks   repository.ClickRepository
	Rankings repository.RankingRepository
	Locker   *lock.Locker
	Clock    clock.Clock
	Location *time.Location
}

type rankingService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	clicks   repository.ClickRepository
	rankings repository.RankingRepository
	locker   *lock.Locker
	clock    clock.Clock
	loc      *time.Location
}

func (s *rankingService) Location() *time.Location {
	return s.loc
}

func NewRankingService(p RankingParams) RankingService {
	clk := p.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return &rankingService{
		products: p.Products,
		orders:   p.Orders,
		clicks:   p.Clicks,
		rankings: p.Rankings,
		locker:   p.Locker,
		clock:    clk,
		loc:      loc,
	}
}

// ComputeWeeklyRanking rebuilds the cached leaderboard of class for the week containing
// weekStart and returns the number of ranked products.
func (s *rankingService) ComputeWeeklyRanking(ctx context.Context, class model.SellerClass, weekStart time.Time) (int, error) {
	if !class.Valid() {
		return 0, invalid("unknown seller class %q", class)
	}
	start := WeekStart(weekStart, s.loc)
	end := weekEnd(start, s.loc)

	key := fmt.Sprintf("ranking:%s:%s", class, start.In(s.loc).Format("2006-01-02"))
	token, ok, err := s.locker.TryLock(ctx, key, rankingLockTTL)
	if err != nil {
		return 0, txError(err)
	}
	if !ok {
		return 0, ErrRankingInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			logger.FromContext(ctx).Warn("ranking lock release failed", zap.String("key", key), zap.Error(err))
		}
	}()

	products, err := s.products.ListActiveByClass(ctx, class)
	if err != nil {
		return 0, txError(err)
	}
	ids := make([]uint64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	sales, err := s.orders.UnitsSoldByProduct(ctx, ids, start, end)
	if err != nil {
		return 0, txError(err)
	}
	clicks, err := s.clicks.CountByProduct(ctx, ids, start, end)
	if err != nil {
		return 0, txError(err)
	}

	now := s.clock.Now()
	ranked := rank(ids, sales, clicks)
	rows := make([]model.WeeklyRanking, 0, len(ranked))
	for _, e := range ranked {
		rows = append(rows, model.WeeklyRanking{
			ProductID:   e.ProductID,
			WeekStart:   start,
			SellerClass: class,
			SalesCount:  e.SalesCount,
			ClickCount:  e.ClickCount,
			Score:       e.Score,
			Rank:        e.Rank,
			ComputedAt:  now,
		})
	}
	if err := s.rankings.ReplaceWeek(ctx, class, start, rows); err != nil {
		return 0, txError(err)
	}
	logger.FromContext(ctx).Info("weekly ranking computed",
		zap.String("seller_class", string(class)),
		zap.Time("week_start", start),
		zap.Int("products", len(rows)),
	)
	return len(rows), nil
}

// rank orders products with sales by sales desc, then the rest by clicks desc, ties by id asc.
func rank(ids []uint64, sales, clicks map[uint64]int64) []RankingEntry {
	out := make([]RankingEntry, 0, len(ids))
	for _, id := range ids {
		e := RankingEntry{ProductID: id, SalesCount: sales[id], ClickCount: clicks[id]}
		if e.SalesCount > 0 {
			e.Score = float64(e.SalesCount)
		} else {
			// stays below 1 so no click count outranks a single sale
			e.Score = float64(e.ClickCount) / float64(e.ClickCount+1)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
		if a.SalesCount == 0 && a.ClickCount != b.ClickCount {
			return a.ClickCount > b.ClickCount
		}
		return a.ProductID < b.ProductID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RecomputeAll refreshes the current and previous week for every seller class.
// Late payments can still land in the previous week after it ends.
func (s *rankingService) RecomputeAll(ctx context.Context) error {
	current := WeekStart(s.clock.Now(), s.loc)
	previous := WeekStart(current.Add(-time.Hour), s.loc)

	var errs []error
	for _, class := range model.SellerClasses() {
		for _, start := range []time.Time{previous, current} {
			if _, err := s.ComputeWeeklyRanking(ctx, class, start); err != nil {
				if errors.Is(err, ErrRankingInProgress) {
					continue
				}
				errs = append(errs, fmt.Errorf("%s %s: %w", class, start.Format(time.DateOnly), err))
			}
		}
	}
	return errors.Join(errs...)
}

// WeeklyRanking reads the cached leaderboard. Without an explicit week the current week
// is used, computed on demand when empty, falling back to the latest cached week while
// another run holds the lock.
func (s *rankingService) WeeklyRanking(ctx context.Context, class model.SellerClass, weekStart *time.Time, limit int) (*WeeklyRanking, error) {
	if !class.Valid() {
		return nil, invalid("unknown seller class %q", class)
	}
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	if weekStart != nil {
		start := WeekStart(*weekStart, s.loc)
		return s.readWeek(ctx, class, start, limit)
	}

	start := WeekStart(s.clock.Now(), s.loc)
	out, err := s.readWeek(ctx, class, start, limit)
	if err != nil || len(out.Entries) > 0 {
		return out, err
	}

	_, err = s.ComputeWeeklyRanking(ctx, class, start)
	switch {
	case err == nil:
		return s.readWeek(ctx, class, start, limit)
	case errors.Is(err, ErrRankingInProgress):
		latest, found, lerr := s.rankings.LatestWeek(ctx, class)
		if lerr != nil {
			return nil, txError(lerr)
		}
		if !found {
			return out, nil
		}
		return s.readWeek(ctx, class, latest, limit)
	default:
		return nil, err
	}
}

func (s *rankingService) readWeek(ctx context.Context, class model.SellerClass, start time.Time, limit int) (*WeeklyRanking, error) {
	rows, err := s.rankings.ListWeek(ctx, class, start, limit)
	if err != nil {
		return nil, txError(err)
	}
	out := &WeeklyRanking{SellerClass: class, WeekStart: start, Entries: make([]RankingEntry, 0, len(rows))}
	for _, r := range rows {
		out.Entries = append(out.Entries, RankingEntry{
			ProductID:  r.ProductID,
			Rank:       r.Rank,
			SalesCount: r.SalesCount,
			ClickCount: r.ClickCount,
			Score:      r.Score,
		})
	}
	return out, nil
}
