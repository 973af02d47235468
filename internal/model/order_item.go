package model

import "time"

// OrderItem keeps the unit price resolved at checkout; it is never repriced.
type OrderItem struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID        uint64    `gorm:"column:order_id;index;not null"`
	ProductID      uint64    `gorm:"column:product_id;index;not null"`
	ProductName    string    `gorm:"column:product_name;size:120;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPrice      int64     `gorm:"column:unit_price;not null"`
	LineTotal      int64     `gorm:"column:line_total;not null"`
	PrintType      string    `gorm:"column:print_type;size:32;not null"`
	Size           string    `gorm:"column:size;size:32;not null"`
	CustomText     string    `gorm:"column:custom_text;type:text"`
	DesignFileName string    `gorm:"column:design_file_name;size:255"`
	DesignFileType string    `gorm:"column:design_file_type;size:64"`
	DesignFileData []byte    `gorm:"column:design_file_data"`
	DesignFileURL  string    `gorm:"column:design_file_url;size:512"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
