package model

import "time"

// PointAccount is the per-user lock row for ledger appends. Its totals are maintained alongside every append.
type PointAccount struct {
	UID          string    `gorm:"column:uid;primaryKey;size:128"`
	TotalEarned  int64     `gorm:"column:total_earned;not null;default:0"`
	TotalUsed    int64     `gorm:"column:total_used;not null;default:0"`
	TotalExpired int64     `gorm:"column:total_expired;not null;default:0"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (PointAccount) TableName() string {
	return "point_accounts"
}
