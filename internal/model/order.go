package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 已建立, 付款未確認
	OrderStatusProcessing OrderStatus = "processing" // 已付款, 待出貨
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered" // 終態
	OrderStatusCancelled  OrderStatus = "cancelled" // 終態
)

// CanTransition 訂單狀態機, 只允許單向前進
// pending -> processing -> shipped -> delivered
// pending/processing -> cancelled
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		// delivered / cancelled 為終態
		return false
	}
}

type Order struct {
	OrderID string `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	UserID  *uint  `gorm:"index" json:"user_id"` // 可為空, 允許訪客結帳

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`

	// 收件地址快照
	Street     string `gorm:"not null;type:varchar(255)" json:"street"`
	City       string `gorm:"not null;type:varchar(100)" json:"city"`
	PostalCode string `gorm:"not null;type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"not null;type:varchar(2)" json:"country"`

	PaymentMethod string `gorm:"not null;type:varchar(50)" json:"payment_method"`

	// 外部金流快照, PaymentID是付款對訂單的去重鍵
	PaymentID       string          `gorm:"uniqueIndex;not null;type:varchar(255)" json:"payment_id"`
	PaymentStatus   string          `gorm:"type:varchar(50)" json:"payment_status"`
	PaymentAmount   decimal.Decimal `gorm:"type:decimal(10,2)" json:"payment_amount"`
	PaymentCurrency string          `gorm:"type:varchar(3)" json:"payment_currency"`

	TotalPrice decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_price"`
	IsPaid     bool            `gorm:"not null;default:false" json:"is_paid"`
	PaidAt     *time.Time      `json:"paid_at"`
	Status     OrderStatus     `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`

	// 庫存是否已扣減, 與扣減動作在同一交易內設置, 設置後不再還原
	InventoryAdjusted bool `gorm:"not null;default:false" json:"inventory_adjusted"`

	// 運送選擇, 購買標籤後才會有tracking欄位
	ShippingCarrier string          `gorm:"type:varchar(50)" json:"shipping_carrier"`
	ShippingService string          `gorm:"type:varchar(100)" json:"shipping_service"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(10,2)" json:"shipping_cost"`
	ShippingRateID  string          `gorm:"type:varchar(255)" json:"shipping_rate_id"`
	TrackingNumber  *string         `gorm:"type:varchar(100)" json:"tracking_number"`
	TrackingURL     *string         `gorm:"type:varchar(512)" json:"tracking_url"`
	LabelURL        *string         `gorm:"type:varchar(512)" json:"label_url"`

	BaseModel
}

// OrderItem 下單當下的行項快照, 建立後不可變
type OrderItem struct {
	OrderID   string          `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	BookID    uint            `gorm:"primaryKey" json:"book_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
	Title     string          `gorm:"not null;type:varchar(255)" json:"title"`
	BaseModel
}
