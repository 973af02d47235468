package model

import "time"

// SellerClass scopes weekly rankings.
type SellerClass string

const (
	SellerClassCreator    SellerClass = "creator"
	SellerClassAuthor     SellerClass = "author"
	SellerClassIndividual SellerClass = "individual"
)

func (c SellerClass) Valid() bool {
	switch c {
	case SellerClassCreator, SellerClassAuthor, SellerClassIndividual:
		return true
	}
	return false
}

// SellerClasses lists every class in a fixed order.
func SellerClasses() []SellerClass {
	return []SellerClass{SellerClassCreator, SellerClassAuthor, SellerClassIndividual}
}

type Product struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	Name        string      `gorm:"size:120;not null"`
	SellerUID   string      `gorm:"column:seller_uid;size:128;index;not null"`
	SellerClass SellerClass `gorm:"column:seller_class;size:32;index;not null"`
	Active      bool        `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
