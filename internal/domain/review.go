package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review at most one per (product, user)
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"uniqueIndex:idx_review_product_user;not null" json:"product"`
	UserID    int64     `gorm:"uniqueIndex:idx_review_product_user;index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Rating    int       `json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Review) TableName() string {
	return "shop_review"
}
