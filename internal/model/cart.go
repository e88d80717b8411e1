package model

// CartItem 已登入用戶的購物車行項, 結帳成功後由訂單交易一併刪除
type CartItem struct {
	UserID   uint `gorm:"primaryKey" json:"user_id"`
	BookID   uint `gorm:"primaryKey" json:"book_id"`
	Quantity int  `gorm:"not null" json:"quantity"`
	BaseModel
}

type WishlistItem struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	BookID uint `gorm:"primaryKey" json:"book_id"`
	BaseModel
}
