package dto

import (
	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
)

// CreateIntentDTO 建立payment intent的請求
// 金額由server端重新計算, 這裡的品項只帶id與數量
type CreateIntentDTO struct {
	Items []service.PlaceOrderItem `json:"items"`
	Email string                   `json:"email"`

	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`

	ShippingCarrier string          `json:"shipping_carrier"`
	ShippingService string          `json:"shipping_service"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ShippingRateID  string          `json:"shipping_rate_id"`
}

type CreateIntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// PlaceOrderDTO 同步下單請求, client端已持有確認完成的付款結果
// 單價與總額仍由server端重算, 不信任client報價
type PlaceOrderDTO struct {
	Items []service.PlaceOrderItem `json:"items"`
	Email string                   `json:"email"`

	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`

	PaymentMethod   string          `json:"payment_method"`
	PaymentID       string          `json:"payment_id"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	PaymentCurrency string          `json:"payment_currency"`

	ShippingCarrier string          `json:"shipping_carrier"`
	ShippingService string          `json:"shipping_service"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	ShippingRateID  string          `json:"shipping_rate_id"`
}

type PlaceOrderResponse struct {
	OrderID string `json:"order_id"`
	Reused  bool   `json:"reused"`
}

// FinalizeOrderDTO 付款確認後的建單請求
type FinalizeOrderDTO struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Email           string `json:"email"`

	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type FinalizeOrderResponse struct {
	OrderID string `json:"order_id"`
	Reused  bool   `json:"reused"`
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status"`
}
