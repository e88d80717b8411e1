package shipping

import (
	"fmt"
)

// Address 對外報價與購買標籤用的收寄件地址
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Email      string `json:"email"`
}

// Parcel 已估算完成的包裹, 尺寸cm 重量g
type Parcel struct {
	LengthCm    float64 `json:"length_cm"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
	WeightGrams int     `json:"weight_grams"`
}

/*
UpstreamError 保留上游HTTP狀態碼與原始回應
429要能被上層辨識出來改走stale cache, 其餘狀態碼一律當作上游故障
*/
type UpstreamError struct {
	Provider   string
	StatusCode int
	Payload    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status %d: %s", e.Provider, e.StatusCode, e.Payload)
}

func (e *UpstreamError) IsRateLimited() bool {
	return e.StatusCode == 429
}
