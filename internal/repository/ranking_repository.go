package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/goods-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RankingRepository interface {
	ReplaceWeek(ctx context.Context, class model.SellerClass, weekStart time.Time, rows []model.WeeklyRanking) error
	ListWeek(ctx context.Context, class model.SellerClass, weekStart time.Time, limit int) ([]model.WeeklyRanking, error)
	LatestWeek(ctx context.Context, class model.SellerClass) (time.Time, bool, error)
}

type rankingRepository struct {
	db *gorm.DB
}

func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepository{db: db}
}

// ReplaceWeek drops the class's rows for weekStart and writes rows in their place.
// Rows are upserted on (product_id, week_start) so overlapping runs converge on the same table.
func (r *rankingRepository) ReplaceWeek(ctx context.Context, class model.SellerClass, weekStart time.Time, rows []model.WeeklyRanking) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("seller_class = ? AND week_start = ?", class, weekStart).
			Delete(&model.WeeklyRanking{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"seller_class", "sales_count", "click_count", "score", "rank_position", "computed_at",
			}),
		}).Create(&rows).Error
	})
}

func (r *rankingRepository) ListWeek(ctx context.Context, class model.SellerClass, weekStart time.Time, limit int) ([]model.WeeklyRanking, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	return withReadRetry(ctx, r.db, func() ([]model.WeeklyRanking, error) {
		var list []model.WeeklyRanking
		q := r.db.WithContext(ctx).
			Where("seller_class = ? AND week_start = ?", class, weekStart).
			Order("rank_position ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&list).Error; err != nil {
			return nil, err
		}
		return list, nil
	})
}

func (r *rankingRepository) LatestWeek(ctx context.Context, class model.SellerClass) (time.Time, bool, error) {
	if r.db == nil {
		return time.Time{}, false, ErrDBNotReady
	}
	row, err := withReadRetry(ctx, r.db, func() (*model.WeeklyRanking, error) {
		var w model.WeeklyRanking
		err := r.db.WithContext(ctx).
			Where("seller_class = ?", class).
			Order("week_start DESC").
			First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &w, nil
	})
	if err != nil || row == nil {
		return time.Time{}, false, err
	}
	return row.WeekStart, true, nil
}
