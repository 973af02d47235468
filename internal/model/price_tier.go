package model

import "time"

// PriceTier is one quantity band of a variant's price table. A nil MaxQuantity marks the open-ended last band.
type PriceTier struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ProductID   uint64    `gorm:"column:product_id;not null;uniqueIndex:uk_price_tiers_variant_min,priority:1"`
	PrintType   string    `gorm:"column:print_type;size:32;not null;uniqueIndex:uk_price_tiers_variant_min,priority:2"`
	Size        string    `gorm:"column:size;size:32;not null;uniqueIndex:uk_price_tiers_variant_min,priority:3"`
	MinQuantity int       `gorm:"column:min_quantity;not null;uniqueIndex:uk_price_tiers_variant_min,priority:4"`
	MaxQuantity *int      `gorm:"column:max_quantity"`
	UnitPrice   int64     `gorm:"column:unit_price;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (PriceTier) TableName() string {
	return "price_tiers"
}
