package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const expiringSoonWindow = 30 * 24 * time.Hour

// PointsSummary is the earn/use view derived from the running-balance ledger.
type PointsSummary struct {
	AvailablePoints int64
	TotalEarned     int64
	TotalUsed       int64
	TotalExpired    int64
	ExpiringSoon    int64
}

type PointsService interface {
	Credit(ctx context.Context, uid string, amount int64, description string, orderID *uint64) error
	Debit(ctx context.Context, uid string, amount int64, description string, orderID *uint64) error
	Adjust(ctx context.Context, uid string, amount int64, description string) error
	CurrentBalance(ctx context.Context, uid string) (int64, error)
	Summary(ctx context.Context, uid string) (*PointsSummary, error)
	History(ctx context.Context, uid string, limit int) ([]model.PointLedgerEntry, error)
	ExpireUser(ctx context.Context, uid string) (int64, error)
	ExpireAll(ctx context.Context) (int, int64, error)
}

type pointsService struct {
	db     *gorm.DB
	repo   repository.PointLedgerRepository
	ledger *Ledger
	clock  clock.Clock
	expiry time.Duration
	log    *zap.Logger
}

func NewPointsService(db *gorm.DB, repo repository.PointLedgerRepository, ledger *Ledger, clk clock.Clock, expiry time.Duration, log *zap.Logger) PointsService {
	if clk == nil {
		clk = clock.Real{}
	}
	if expiry <= 0 {
		expiry = 365 * 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &pointsService{
		db:     db,
		repo:   repo,
		ledger: ledger,
		clock:  clk,
		expiry: expiry,
		log:    log.Named("points"),
	}
}

func (s *pointsService) Credit(ctx context.Context, uid string, amount int64, description string, orderID *uint64) error {
	if amount <= 0 {
		return invalid("amount must be positive")
	}
	return s.append(ctx, uid, model.LedgerEarn, amount, description, orderID)
}

func (s *pointsService) Debit(ctx context.Context, uid string, amount int64, description string, orderID *uint64) error {
	if amount <= 0 {
		return invalid("amount must be positive")
	}
	return s.append(ctx, uid, model.LedgerSpend, -amount, description, orderID)
}

func (s *pointsService) Adjust(ctx context.Context, uid string, amount int64, description string) error {
	if amount == 0 {
		return invalid("amount must be non-zero")
	}
	if strings.TrimSpace(description) == "" {
		return invalid("description is required")
	}
	return s.append(ctx, uid, model.LedgerAdjust, amount, description, nil)
}

func (s *pointsService) append(ctx context.Context, uid string, dir model.LedgerDirection, amount int64, description string, orderID *uint64) error {
	if strings.TrimSpace(uid) == "" {
		return invalid("user is required")
	}
	unlock := s.ledger.Lock(uid)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.ledger.Append(ctx, tx, uid, dir, amount, description, orderID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientPoints) && !errors.Is(err, ErrInvalidInput) {
			s.log.Error("ledger append failed", zap.String("uid", uid), zap.String("direction", string(dir)), zap.Error(err))
		}
		return txError(err)
	}
	return nil
}

func (s *pointsService) CurrentBalance(ctx context.Context, uid string) (int64, error) {
	latest, err := s.repo.Latest(ctx, uid)
	if err != nil {
		return 0, readError(err)
	}
	if latest == nil {
		return 0, nil
	}
	return latest.Balance, nil
}

func (s *pointsService) Summary(ctx context.Context, uid string) (*PointsSummary, error) {
	entries, err := s.repo.ListAll(ctx, uid)
	if err != nil {
		return nil, readError(err)
	}
	acc, err := s.repo.GetAccount(ctx, uid)
	if err != nil {
		return nil, readError(err)
	}
	sum := &PointsSummary{
		TotalEarned:  acc.TotalEarned,
		TotalUsed:    acc.TotalUsed,
		TotalExpired: acc.TotalExpired,
	}
	if n := len(entries); n > 0 {
		sum.AvailablePoints = entries[n-1].Balance
	}
	cutoff := s.clock.Now().Add(expiringSoonWindow).Add(-s.expiry)
	sum.ExpiringSoon = expirable(entries, cutoff)
	return sum, nil
}

func (s *pointsService) History(ctx context.Context, uid string, limit int) ([]model.PointLedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.repo.History(ctx, uid, limit)
	if err != nil {
		return nil, readError(err)
	}
	return list, nil
}

// ExpireUser appends one EXPIRE entry for the unconsumed part of EARN lots older than the
// expiry period. It returns the points expired; rerunning right after is a no-op.
func (s *pointsService) ExpireUser(ctx context.Context, uid string) (int64, error) {
	unlock := s.ledger.Lock(uid)
	defer unlock()

	var expired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockAccount(ctx, uid); err != nil {
			return err
		}
		entries, err := repo.ListAll(ctx, uid)
		if err != nil {
			return err
		}
		expired = expirable(entries, s.clock.Now().Add(-s.expiry))
		if expired <= 0 {
			return nil
		}
		_, err = s.ledger.Append(ctx, tx, uid, model.LedgerExpire, -expired, "points expired", nil)
		return err
	})
	if err != nil {
		return 0, txError(err)
	}
	return expired, nil
}

// ExpireAll reconciles every user holding EARN entries older than the expiry period.
// Failures are logged per user and joined into the returned error.
func (s *pointsService) ExpireAll(ctx context.Context) (int, int64, error) {
	uids, err := s.repo.UsersWithEarnBefore(ctx, s.clock.Now().Add(-s.expiry))
	if err != nil {
		return 0, 0, readError(err)
	}
	var (
		users int
		total int64
		errs  []error
	)
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return users, total, err
		}
		n, err := s.ExpireUser(ctx, uid)
		if err != nil {
			s.log.Warn("expire points failed", zap.String("uid", uid), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			users++
			total += n
		}
	}
	return users, total, errors.Join(errs...)
}
