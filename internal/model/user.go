package model

type User struct {
	BaseModel
	UserID         uint    `gorm:"primaryKey" json:"user_id"`
	UserName       string  `gorm:"not null;type:varchar(100)" json:"user_name"`
	UserEmail      string  `gorm:"unique;not null;type:varchar(100)" json:"user_email"`
	HashedPassword string  `gorm:"type:varchar(255)" json:"-"` // google帳號可能沒有密碼
	GoogleID       *string `gorm:"unique;type:varchar(100)" json:"-"`
	IsAdmin        bool    `gorm:"not null;default:false" json:"is_admin"`
}
