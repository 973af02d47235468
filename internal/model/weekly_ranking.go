package model

import "time"

// WeeklyRanking is a derived cache row; it can be dropped and recomputed at any time.
type WeeklyRanking struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	ProductID   uint64      `gorm:"column:product_id;not null;uniqueIndex:uk_weekly_rankings_product_week,priority:1"`
	WeekStart   time.Time   `gorm:"column:week_start;not null;uniqueIndex:uk_weekly_rankings_product_week,priority:2;index:idx_weekly_rankings_class_week,priority:2"`
	SellerClass SellerClass `gorm:"column:seller_class;size:32;not null;index:idx_weekly_rankings_class_week,priority:1"`
	SalesCount  int64       `gorm:"column:sales_count;not null;default:0"`
	ClickCount  int64       `gorm:"column:click_count;not null;default:0"`
	Score       float64     `gorm:"column:score;not null;default:0"`
	Rank        int         `gorm:"column:rank_position;not null"`
	ComputedAt  time.Time   `gorm:"column:computed_at;not null"`
}

func (WeeklyRanking) TableName() string {
	return "weekly_rankings"
}
