package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointLedgerRepository interface {
	LockAccount(ctx context.Context, uid string) (*model.PointAccount, error)
	GetAccount(ctx context.Context, uid string) (*model.PointAccount, error)
	AddTotals(ctx context.Context, uid string, earned, used, expired int64) error
	Latest(ctx context.Context, uid string) (*model.PointLedgerEntry, error)
	Append(ctx context.Context, e *model.PointLedgerEntry) error
	History(ctx context.Context, uid string, limit int) ([]model.PointLedgerEntry, error)
	ListAll(ctx context.Context, uid string) ([]model.PointLedgerEntry, error)
	UsersWithEarnBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	WithTx(tx *gorm.DB) PointLedgerRepository
}

type pointLedgerRepository struct {
	db *gorm.DB
}

func NewPointLedgerRepository(db *gorm.DB) PointLedgerRepository {
	return &pointLedgerRepository{db: db}
}

func (r *pointLedgerRepository) WithTx(tx *gorm.DB) PointLedgerRepository {
	return &pointLedgerRepository{db: tx}
}

// LockAccount creates the account row on first use and locks it until the enclosing transaction ends.
func (r *pointLedgerRepository) LockAccount(ctx context.Context, uid string) (*model.PointAccount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PointAccount{UID: uid}).Error; err != nil {
		return nil, err
	}
	var acc model.PointAccount
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uid = ?", uid).
		First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetAccount returns a zero account for users who never had an entry.
func (r *pointLedgerRepository) GetAccount(ctx context.Context, uid string) (*model.PointAccount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() (*model.PointAccount, error) {
		var acc model.PointAccount
		err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&acc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.PointAccount{UID: uid}, nil
		}
		if err != nil {
			return nil, err
		}
		return &acc, nil
	})
}

func (r *pointLedgerRepository) AddTotals(ctx context.Context, uid string, earned, used, expired int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.PointAccount{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"total_earned":  gorm.Expr("total_earned + ?", earned),
			"total_used":    gorm.Expr("total_used + ?", used),
			"total_expired": gorm.Expr("total_expired + ?", expired),
		}).Error
}

// Latest returns the newest entry by (created_at, id), or nil when the user has none.
func (r *pointLedgerRepository) Latest(ctx context.Context, uid string) (*model.PointLedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() (*model.PointLedgerEntry, error) {
		var e model.PointLedgerEntry
		err := r.db.WithContext(ctx).
			Where("user_uid = ?", uid).
			Order("created_at DESC, id DESC").
			First(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &e, nil
	})
}

func (r *pointLedgerRepository) Append(ctx context.Context, e *model.PointLedgerEntry) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *pointLedgerRepository) History(ctx context.Context, uid string, limit int) ([]model.PointLedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.PointLedgerEntry, error) {
		var list []model.PointLedgerEntry
		if err := r.db.WithContext(ctx).
			Where("user_uid = ?", uid).
			Order("created_at DESC, id DESC").
			Limit(limit).
			Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}

// ListAll returns every entry of the user in replay order.
func (r *pointLedgerRepository) ListAll(ctx context.Context, uid string) ([]model.PointLedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.PointLedgerEntry, error) {
		var list []model.PointLedgerEntry
		if err := r.db.WithContext(ctx).
			Where("user_uid = ?", uid).
			Order("created_at ASC, id ASC").
			Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}

func (r *pointLedgerRepository) UsersWithEarnBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]string, error) {
		var uids []string
		if err := r.db.WithContext(ctx).
			Model(&model.PointLedgerEntry{}).
			Where("direction = ? AND created_at <= ?", model.LedgerEarn, cutoff).
			Distinct().
			Order("user_uid ASC").
			Pluck("user_uid", &uids).Error; err != nil {
			return nil, err
		}
		return uids, nil
	})
}
