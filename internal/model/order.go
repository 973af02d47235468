package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ShippingSnapshot is the delivery address copied into the order at checkout.
type ShippingSnapshot struct {
	RecipientName string `json:"recipientName"`
	Phone         string `json:"phone"`
	PostalCode    string `json:"postalCode"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2,omitempty"`
}

func (s ShippingSnapshot) Complete() bool {
	return strings.TrimSpace(s.RecipientName) != "" &&
		strings.TrimSpace(s.Phone) != "" &&
		strings.TrimSpace(s.PostalCode) != "" &&
		strings.TrimSpace(s.Address1) != ""
}

type Order struct {
	ID               uint64                               `gorm:"primaryKey;autoIncrement"`
	OrderNo          string                               `gorm:"column:order_no;size:40;not null;uniqueIndex:uk_orders_order_no"`
	UserUID          string                               `gorm:"column:user_uid;size:128;index;not null"`
	Status           OrderStatus                          `gorm:"column:status;size:16;index;not null"`
	Subtotal         int64                                `gorm:"column:subtotal;not null"`
	Discount         int64                                `gorm:"column:discount;not null;default:0"`
	ShippingFee      int64                                `gorm:"column:shipping_fee;not null;default:0"`
	PointsUsed       int64                                `gorm:"column:points_used;not null;default:0"`
	FinalAmount      int64                                `gorm:"column:final_amount;not null"`
	PointsEarned     int64                                `gorm:"column:points_earned;not null;default:0"`
	PaymentReference string                               `gorm:"column:payment_reference;size:128"`
	ShippingSnapshot datatypes.JSONType[ShippingSnapshot] `gorm:"column:shipping_snapshot;not null"`
	PaidAt           *time.Time                           `gorm:"column:paid_at;index"`
	CancelledAt      *time.Time                           `gorm:"column:cancelled_at"`
	Items            []OrderItem                          `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time                            `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                            `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
