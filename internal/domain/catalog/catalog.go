package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductCategory) TableName() string { return "product_category" }

type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index;column:category_id" json:"category_id,omitempty"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Name        string           `gorm:"not null;column:name" json:"name"`
	Slug        string           `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description string           `gorm:"column:description" json:"description"`
	PriceCents  int64            `gorm:"not null;column:price_cents" json:"price_cents"`
	// Stock counts units not claimed by a non-cancelled order item.
	Stock      int            `gorm:"not null;default:0;column:stock;check:chk_product_stock,stock >= 0" json:"stock"`
	ImageKey   string         `gorm:"column:image_key" json:"-"`
	ImageURL   string         `gorm:"column:image_url" json:"image_url"`
	Attributes datatypes.JSON `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`
	Active     bool           `gorm:"not null;column:active;index" json:"active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }
