package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the root of a purchase transaction. It owns exactly one
// ShippingAddress and its OrderItems.
type Order struct {
	ID              uint             `gorm:"primaryKey" json:"_id"`
	UserID          *uint            `gorm:"index" json:"-"`
	User            *User            `gorm:"foreignKey:UserID" json:"user"`
	PaymentMethod   string           `gorm:"type:varchar(200)" json:"paymentMethod"`
	TaxPrice        decimal.Decimal  `gorm:"type:decimal(7,2)" json:"taxPrice"`
	ShippingPrice   decimal.Decimal  `gorm:"type:decimal(7,2)" json:"shippingPrice"`
	TotalPrice      decimal.Decimal  `gorm:"type:decimal(7,2)" json:"totalPrice"`
	IsPaid          bool             `gorm:"default:false" json:"isPaid"`
	PaidAt          *time.Time       `json:"paidAt"`
	IsDelivered     bool             `gorm:"default:false" json:"isDelivered"`
	DeliveredAt     *time.Time       `json:"deliveredAt"`
	Items           []OrderItem      `gorm:"foreignKey:OrderID" json:"orderItems"`
	ShippingAddress *ShippingAddress `gorm:"foreignKey:OrderID" json:"shippingAddress"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product's name, price, and thumbnail at purchase
// time so historical orders stay stable when the product changes or goes
// away.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"_id"`
	ProductID *uint           `gorm:"index" json:"product"`
	OrderID   *uint           `gorm:"index" json:"order"`
	Name      string          `gorm:"type:varchar(200)" json:"name"`
	Color     string          `gorm:"type:varchar(200)" json:"color"`
	Size      string          `gorm:"type:varchar(200)" json:"size"`
	Qty       int             `gorm:"default:0" json:"qty"`
	Price     decimal.Decimal `gorm:"type:decimal(7,2)" json:"price"`
	Thumbnail string          `gorm:"type:varchar(200)" json:"thumbnail"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

type ShippingAddress struct {
	ID            uint                `gorm:"primaryKey" json:"_id"`
	OrderID       *uint               `gorm:"uniqueIndex" json:"order"`
	Address       string              `gorm:"type:varchar(200)" json:"address"`
	City          string              `gorm:"type:varchar(100)" json:"city"`
	PostalCode    string              `gorm:"type:varchar(200)" json:"postalCode"`
	Country       string              `gorm:"type:varchar(200)" json:"country"`
	ShippingPrice decimal.NullDecimal `gorm:"type:decimal(7,2)" json:"shippingPrice"`
}

func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}
