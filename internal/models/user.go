package models

import "time"

// User is an account created on first Google sign-in. ID is the Google
// subject identifier, which is also the userId stamped on owned records.
type User struct {
	ID          string     `json:"id"                  gorm:"type:varchar(191);primaryKey"`
	Email       string     `json:"email"               gorm:"type:varchar(191);index"`
	Name        string     `json:"name"                gorm:"type:varchar(191)"`
	Image       string     `json:"image,omitempty"     gorm:"type:varchar(512)"`
	GoogleToken string     `json:"-"                   gorm:"type:longtext"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserStats is a per-user record count used by the admin checks.
type UserStats struct {
	UserID   string `json:"userId"`
	Notes    int64  `json:"notes"`
	Features int64  `json:"features"`
	Settings bool   `json:"settings"`
}
