package dto

import "github.com/shopspring/decimal"

type BookDTO struct {
	BookID      uint            `json:"book_id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"is_available"`
	CoverURL    string          `json:"cover_url"`
}

// UpsertBookDTO 建立與更新書目共用, 實體尺寸供運費計算
type UpsertBookDTO struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"is_available"`
	CoverURL    string          `json:"cover_url"`
	WidthCm     float64         `json:"width_cm"`
	HeightCm    float64         `json:"height_cm"`
	ThicknessCm float64         `json:"thickness_cm"`
	WeightGrams int             `json:"weight_grams"`
}

type AddStockDTO struct {
	Quantity int `json:"quantity"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
