package models

import "time"

type Product struct {
	ID          string  `gorm:"type:uuid;primaryKey"      json:"id"`
	Title       string  `gorm:"not null"                  json:"title"`
	Description string  `gorm:"not null"                  json:"description"`
	Price       float64 `gorm:"not null"                  json:"price"`
	InStock     uint    `json:"in_stock"`
	Slug        string  `gorm:"uniqueIndex;not null"      json:"slug"`
	Sizes       string  `json:"sizes"`
	Gender      string  `json:"gender"`
	Image       string  `json:"image"`
}

type User struct {
	ID           string `gorm:"type:uuid;primaryKey"     json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    string `gorm:"index;not null"      json:"user_id"`
	JTI       string `gorm:"not null"            json:"jti"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// ShippingAddress is a value object, it has no identity of its own and is
// stored embedded in the order row.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address_2"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	Province  string `json:"province"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
}

// Order is immutable once created except for the payment fields, which are
// set exactly once by the payment capture flow.
type Order struct {
	ID              string          `gorm:"type:uuid;primaryKey"                 json:"id"`
	UserID          string          `gorm:"type:uuid;index;not null"             json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                   json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"        json:"shipping_address"`
	NumberOfItems   uint            `gorm:"not null"                             json:"number_of_items"`
	Subtotal        float64         `gorm:"not null"                             json:"subtotal"`
	Tax             float64         `gorm:"not null"                             json:"tax"`
	Total           float64         `gorm:"not null"                             json:"total"`
	IsPaid          bool            `gorm:"default:false"                        json:"is_paid"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       int64           `gorm:"not null"                             json:"created_at"`
}

// OrderItem is a snapshot of a cart line item at checkout time, not a live
// reference to the product row.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   string  `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID string  `gorm:"type:uuid;not null"          json:"product_id"`
	Title     string  `gorm:"not null"                    json:"title"`
	Size      string  `gorm:"not null"                    json:"size"`
	Quantity  uint    `gorm:"check:quantity>0"            json:"quantity"`
	Price     float64 `gorm:"not null"                    json:"price"`
	Slug      string  `json:"slug"`
	Image     string  `json:"image"`
	Gender    string  `json:"gender"`
}
