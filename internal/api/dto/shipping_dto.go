package dto

// QuoteItemDTO 報價品項, 重量尺寸由server端從書目資料帶出
type QuoteItemDTO struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// QuoteDTO 運費報價請求
// EstimateOnly為true時只需要國家與郵遞區號
type QuoteDTO struct {
	Country      string         `json:"country"`
	PostalCode   string         `json:"postal_code"`
	City         string         `json:"city"`
	Street       string         `json:"street"`
	Email        string         `json:"email"`
	Items        []QuoteItemDTO `json:"items"`
	EstimateOnly bool           `json:"estimate_only"`
}

// PurchaseLabelDTO 以先前報價取得的rate id購買標籤
type PurchaseLabelDTO struct {
	RateID string `json:"rate_id"`
}
