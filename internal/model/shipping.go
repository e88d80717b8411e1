package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ETASource string

const (
	ETASourceCarrier   ETASource = "carrier"   // 貨運商回報的運送天數
	ETASourceEstimated ETASource = "estimated" // 依貨運商名稱查表估算
)

// ETA 預計送達區間, Source讓前端能區分可信度
type ETA struct {
	MinDays  int       `json:"min_days"`
	MaxDays  int       `json:"max_days"`
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
	Source   ETASource `json:"source"`
}

/*
Rate 兩家報價商正規化後的單一報價形狀
RateID是外部時效性token, 可用來購買標籤, 生命週期只有數分鐘
*/
type Rate struct {
	RateID   string          `json:"rate_id"`
	Carrier  string          `json:"carrier"`
	Service  string          `json:"service"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	ETA      ETA             `json:"eta"`
}

// Label 已購買的運送標籤
type Label struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	LabelURL       string `json:"label_url"`
}

// ParcelItem 運費估算的輸入, 缺漏或非法值以預設常數補上
type ParcelItem struct {
	WeightGrams int     `json:"weight_grams"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
	ThicknessCm float64 `json:"thickness_cm"`
	Quantity    int     `json:"quantity"`
}

type WeightBreakdownEntry struct {
	WeightGrams int `json:"weight_grams"`
	Quantity    int `json:"quantity"`
	Subtotal    int `json:"subtotal"`
}

type ParcelEstimate struct {
	TotalGrams     int                    `json:"total_grams"`
	Breakdown      []WeightBreakdownEntry `json:"breakdown"`
	PackagingGrams int                    `json:"packaging_grams"`
	LengthCm       float64                `json:"length_cm"`
	WidthCm        float64                `json:"width_cm"`
	HeightCm       float64                `json:"height_cm"`
}
