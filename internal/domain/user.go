package domain

import "time"

type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string     `gorm:"size:150;uniqueIndex" json:"username"`
	Email     string     `gorm:"size:254" json:"email"`
	Password  string     `gorm:"size:128" json:"-"` // bcrypt hash
	IsStaff   bool       `gorm:"default:false" json:"is_staff"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "sys_user"
}
