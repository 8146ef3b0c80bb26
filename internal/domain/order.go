package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OrderLine snapshot of a purchased item taken when the order is placed.
// It never follows later catalog changes.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal unit price times quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// OrderLines is stored as a json text column
type OrderLines []OrderLine

func (ls OrderLines) Value() (driver.Value, error) {
	if ls == nil {
		return "[]", nil
	}
	bs, err := json.Marshal(ls)
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

func (ls *OrderLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*ls = OrderLines{}
		return nil
	case []byte:
		return json.Unmarshal(v, ls)
	case string:
		return json.Unmarshal([]byte(v), ls)
	default:
		return fmt.Errorf("unsupported order lines type %T", src)
	}
}

// Total sum of line subtotals
func (ls OrderLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.Subtotal())
	}
	return total
}

type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64           `gorm:"index" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Products    OrderLines      `gorm:"type:text" json:"products"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	Address     string          `gorm:"type:text" json:"address"`
	Phone       string          `gorm:"size:30" json:"phone"`
	Paid        bool            `gorm:"default:false" json:"paid"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "shop_order"
}
