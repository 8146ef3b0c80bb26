package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product foam product, the main catalog item
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:200;index" json:"name"`
	Density     float64         `json:"density"`          // kg/m3
	Size        string          `gorm:"size:100" json:"size"` // e.g. 6x4x1 inch
	Color       string          `gorm:"size:50" json:"color"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Image       string          `gorm:"size:1024" json:"image"` // path relative to the media url
	Description string          `gorm:"type:text" json:"description"`
	Stock       int             `gorm:"default:0" json:"stock"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	Reviews     []Review        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "shop_product"
}

// Pillow catalog item
type Pillow struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:255;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Color       string          `gorm:"size:50" json:"color"`
	Size        string          `gorm:"size:50" json:"size"`
	Stock       int             `gorm:"default:0" json:"stock"`
	Image       string          `gorm:"size:1024" json:"image"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Pillow) TableName() string {
	return "shop_pillow"
}

// EPESheet expanded polyethylene sheet catalog item
type EPESheet struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:255;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Size        string          `gorm:"size:50" json:"size"`
	Stock       int             `gorm:"default:0" json:"stock"`
	Image       string          `gorm:"size:1024" json:"image"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (EPESheet) TableName() string {
	return "shop_epe_sheet"
}
