package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `gorm:"not null;default:''"          json:"description"`
	Author      string          `                                    json:"author"`
	Category    string          `gorm:"index"                        json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	Stock       int             `gorm:"not null;default:0"           json:"stock"`
	ImageURL    string          `                                    json:"image_url"`
	CreatedAt   time.Time       `                                    json:"created_at"`
}

type User struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email         string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash  string    `gorm:"not null"                 json:"-"`
	Role          string    `gorm:"not null;default:user"    json:"role"`
	Phone         string    `                                json:"phone"`
	FullName      string    `                                json:"full_name"`
	Address       string    `                                json:"address"`
	City          string    `                                json:"city"`
	State         string    `                                json:"state"`
	Pincode       string    `                                json:"pincode"`
	EmailVerified bool      `gorm:"not null;default:false"   json:"email_verified"`
	PhoneVerified bool      `gorm:"not null;default:false"   json:"phone_verified"`
	CreatedAt     time.Time `                                json:"created_at"`
}

// IsFullyVerified is true when either contact was proven by OTP.
func (u *User) IsFullyVerified() bool {
	return u.EmailVerified || u.PhoneVerified
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                  json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_cart_user_product;not null"  json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_user_product;not null"  json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity>0"         json:"quantity"`
	AddedAt   time.Time `gorm:"not null"                                    json:"added_at"`

	User    *User    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Product *Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal is price × quantity; zero when Product is not loaded.
func (c *CartItem) Subtotal() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                      json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_wishlist_user_product;not null"  json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_wishlist_user_product;not null"  json:"product_id"`
	AddedAt   time.Time `gorm:"not null"                                        json:"added_at"`

	User    *User    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Product *Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID          uint            `gorm:"primaryKey"                  json:"id"`
	UserID      uint            `gorm:"index;not null"              json:"user_id"`
	OrderDate   time.Time       `gorm:"index;not null"              json:"order_date"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status      OrderStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`

	User *User `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// OrderItem is the purchase-time snapshot of a cart line. Price is copied
// from the product when the order is placed and never follows later changes.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                          json:"id"`
	OrderID   uint            `gorm:"index;not null"                      json:"order_id"`
	ProductID uint            `gorm:"index;not null"                      json:"product_id"`
	Quantity  uint            `gorm:"not null;check:quantity>0"           json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"price"`

	Product *Product `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
}

func (o *OrderItem) Subtotal() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &WishlistItem{}, &Order{}, &OrderItem{}}
}
