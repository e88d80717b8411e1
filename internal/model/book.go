package model

import (
	"github.com/shopspring/decimal"
)

/*
Book 書籍目錄 + 庫存
尺寸欄位採用語意命名(寬/高/厚), 儲存、API、包裝計算都使用同一組名稱
*/
type Book struct {
	BookID      uint            `gorm:"primaryKey" json:"book_id"`
	Title       string          `gorm:"not null;type:varchar(255)" json:"title"`
	Author      string          `gorm:"not null;type:varchar(255)" json:"author"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`

	// 實體屬性, 供運費計算使用, 0表示未量測
	WidthCm     float64 `gorm:"not null;default:0" json:"width_cm"`
	HeightCm    float64 `gorm:"not null;default:0" json:"height_cm"`
	ThicknessCm float64 `gorm:"not null;default:0" json:"thickness_cm"`
	WeightGrams int     `gorm:"not null;default:0" json:"weight_grams"`

	CoverURL string `gorm:"type:varchar(512)" json:"cover_url"`
	BaseModel
}
