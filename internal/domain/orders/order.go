package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// HoldsStock reports whether items of an order in this status are debited from product stock.
func (s Status) HoldsStock() bool { return s != StatusCancelled }

type Order struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          Status         `gorm:"not null;default:pending;column:status;index" json:"status"`
	TotalCents      int64          `gorm:"not null;column:total_cents" json:"total_cents"`
	ShippingName    string         `gorm:"column:shipping_name" json:"shipping_name"`
	ShippingAddress datatypes.JSON `gorm:"column:shipping_address;type:jsonb" json:"shipping_address,omitempty"`
	Notes           string         `gorm:"column:notes" json:"notes"`
	Items           []OrderItem    `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Order) TableName() string { return "shop_order" }

type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName    string    `gorm:"not null;column:product_name" json:"product_name"`
	UnitPriceCents int64     `gorm:"not null;column:unit_price_cents" json:"unit_price_cents"`
	Quantity       int       `gorm:"not null;column:quantity" json:"quantity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OrderItem) TableName() string { return "order_item" }

func (i OrderItem) LineTotalCents() int64 { return i.UnitPriceCents * int64(i.Quantity) }
