package domain

import "time"

const DefaultCompanyName = "Infinite Private Limited"

// CompanyInfo the company profile, the first row is the canonical one
type CompanyInfo struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:200" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Mission      string    `gorm:"type:text" json:"mission"`
	ContactEmail string    `gorm:"size:254" json:"contact_email"`
	ContactPhone string    `gorm:"size:50" json:"contact_phone"`
	Address      string    `gorm:"type:text" json:"address"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CompanyInfo) TableName() string {
	return "shop_company_info"
}

// Inquiry public lead capture record
type Inquiry struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:200" json:"name"`
	Company      string    `gorm:"size:200" json:"company"`
	Email        string    `gorm:"size:254" json:"email"`
	Phone        string    `gorm:"size:50" json:"phone"`
	Product      string    `gorm:"size:200" json:"product"`
	Quantity     int       `gorm:"default:0" json:"quantity"`
	Requirements string    `gorm:"type:text" json:"requirements"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Inquiry) TableName() string {
	return "shop_inquiry"
}
