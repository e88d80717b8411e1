package model

import "time"

// ContentPage CMS靜態頁面 (about/contact/faq/imprint/privacy)
type ContentPage struct {
	Slug      string `gorm:"primaryKey;type:varchar(50)" json:"slug"`
	Title     string `gorm:"not null;type:varchar(255)" json:"title"`
	Body      string `gorm:"type:text" json:"body"`
	ImageURL  string `gorm:"type:varchar(512)" json:"image_url"`
	UpdatedBy *uint  `json:"updated_by"`
	BaseModel
}

type PasswordResetToken struct {
	Token     string     `gorm:"primaryKey;type:varchar(64)" json:"-"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	BaseModel
}
