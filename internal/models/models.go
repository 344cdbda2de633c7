package models

import (
	"time"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleShopkeeper Role = "shopkeeper"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleShopkeeper:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name               string     `gorm:"not null"                  json:"name"`
	Email              string     `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash       string     `gorm:"not null"                  json:"-"`
	Role               Role       `gorm:"not null;default:customer" json:"role"`
	Phone              string     `json:"phone,omitempty"`
	IsActive           bool       `gorm:"not null;default:true"     json:"is_active"`
	RefreshTokenHash   *string    `gorm:"index"                     json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Product struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Description  string    `json:"description"`
	Price        float64   `gorm:"not null"                 json:"price"`
	Stock        uint      `json:"stock"`
	IsActive     bool      `gorm:"not null;default:true"    json:"is_active"`
	ShopkeeperID uint      `gorm:"index;not null"           json:"shopkeeper_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentCard       PaymentMethod = "Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "Net Banking"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentNetBanking:
		return PaymentMethod(s), true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type ShippingAddress struct {
	Street  string `gorm:"not null" json:"street"`
	City    string `gorm:"not null" json:"city"`
	State   string `gorm:"not null" json:"state"`
	ZipCode string `gorm:"not null" json:"zip_code"`
	Country string `gorm:"not null" json:"country"`
}

// Complete reports whether every address field is filled in.
func (a ShippingAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.ZipCode != "" && a.Country != ""
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null"              json:"order_number"`
	CustomerID      uint            `gorm:"index;not null"                    json:"customer_id"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"       json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"     json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"not null;default:COD"              json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"index;not null;default:Pending"    json:"payment_status"`
	OrderStatus     OrderStatus     `gorm:"index;not null;default:Pending"    json:"order_status"`
	TotalAmount     float64         `gorm:"not null"                          json:"total_amount"`
	TotalItems      uint            `gorm:"not null"                          json:"total_items"`
	Notes           string          `gorm:"size:500"                          json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a point-in-time snapshot: name and price are copied from the
// product at checkout and never change afterwards.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      uint    `gorm:"index;not null"           json:"order_id"`
	ProductID    uint    `gorm:"not null"                 json:"product_id"`
	ProductName  string  `gorm:"not null"                 json:"product_name"`
	Quantity     uint    `gorm:"not null;check:quantity>0" json:"quantity"`
	Price        float64 `gorm:"not null"                 json:"price"`
	ShopkeeperID uint    `gorm:"index;not null"           json:"shopkeeper_id"`
}
