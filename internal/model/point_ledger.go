package model

import "time"

type LedgerDirection string

const (
	LedgerEarn   LedgerDirection = "EARN"
	LedgerSpend  LedgerDirection = "SPEND"
	LedgerExpire LedgerDirection = "EXPIRE"
	LedgerAdjust LedgerDirection = "ADJUST"
)

// PointLedgerEntry is append-only. Amount is signed and Balance is the running total after this entry.
type PointLedgerEntry struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	UserUID     string          `gorm:"column:user_uid;size:128;not null;index:idx_point_ledger_user_created,priority:1"`
	Direction   LedgerDirection `gorm:"column:direction;size:16;not null"`
	Amount      int64           `gorm:"column:amount;not null"`
	Balance     int64           `gorm:"column:balance;not null"`
	Description string          `gorm:"column:description;size:255"`
	OrderID     *uint64         `gorm:"column:order_id;index"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null;index:idx_point_ledger_user_created,priority:2"`
}

func (PointLedgerEntry) TableName() string {
	return "point_ledger"
}
