package model

import "time"

type ClickEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ProductID uint64    `gorm:"column:product_id;not null;index:idx_click_events_dedup,priority:1"`
	UserUID   *string   `gorm:"column:user_uid;size:128"`
	IPAddress string    `gorm:"column:ip_address;size:64;not null;index:idx_click_events_dedup,priority:2"`
	UserAgent string    `gorm:"column:user_agent;size:512"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_click_events_dedup,priority:3;index"`
}

func (ClickEvent) TableName() string {
	return "click_events"
}
