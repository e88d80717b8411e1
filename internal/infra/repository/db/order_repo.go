package db

import (
	"context"
	"errors"
	"time"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

/*
CreateOrderWithInventory 下單核心交易, 全部成功才commit:
 1. 依payment_id查重, 已存在直接回傳舊訂單 (reused=true)
 2. 寫入訂單與行項, inventory_adjusted=false
 3. 逐行項條件式扣庫存, 任一行不足整筆rollback
 4. 設置inventory_adjusted=true
 5. 已登入用戶順帶清空購物車

payment_id帶唯一索引, 同步與webhook路徑賽跑時輸的一方
會吃到ErrDuplicatedKey, 這裡轉成回讀對方已建立的訂單
*/
func (s *OrderRepo) CreateOrderWithInventory(ctx context.Context, order *model.Order, clearCartUserID *uint) (*model.Order, bool, error) {
	var existing *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found model.Order
		err := tx.Preload("OrderItems").First(&found, "payment_id = ?", order.PaymentID).Error
		if err == nil {
			existing = &found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order.InventoryAdjusted = false
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range order.OrderItems {
			if err := deductStockTx(tx, item.BookID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Order{}).
			Where("order_id = ?", order.OrderID).
			Update("inventory_adjusted", true).Error; err != nil {
			return err
		}
		order.InventoryAdjusted = true

		if clearCartUserID != nil {
			if err := tx.Unscoped().
				Where("user_id = ?", *clearCartUserID).
				Delete(&model.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, err2 := s.GetOrderByPaymentID(ctx, order.PaymentID)
			if err2 == nil {
				return winner, true, nil
			}
		}
		return nil, false, err
	}

	if existing != nil {
		return existing, true, nil
	}
	return order, false, nil
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "order_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetOrderByPaymentID(ctx context.Context, paymentID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// 分頁查詢訂單
func (s *OrderRepo) GetOrdersPaginated(ctx context.Context, page, pageSize int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	offset := (page - 1) * pageSize

	s.db.WithContext(ctx).Model(&model.Order{}).Count(&total)

	err := s.db.WithContext(ctx).Preload("OrderItems").
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}

// Update - 更新訂單狀態, 狀態機檢核由service負責
func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", id).
		Update("status", status).Error
}

/*
MarkOrderPaid webhook路徑專用: 只碰付款旗標與狀態, 絕不碰庫存
狀態只在pending時前進到processing, 不會倒退
paid_at只在第一次設置
*/
func (s *OrderRepo) MarkOrderPaid(ctx context.Context, id string, paymentStatus string, paidAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("order_id = ?", id).
			Updates(map[string]interface{}{
				"is_paid":        true,
				"paid_at":        gorm.Expr("COALESCE(paid_at, ?)", paidAt),
				"payment_status": paymentStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}

		return tx.Model(&model.Order{}).
			Where("order_id = ? AND status = ?", id, model.OrderStatusPending).
			Update("status", model.OrderStatusProcessing).Error
	})
}

// Update - 標籤購買成功後補上tracking欄位
func (s *OrderRepo) UpdateOrderTracking(ctx context.Context, id string, label *model.Label) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", id).
		Updates(map[string]interface{}{
			"tracking_number": label.TrackingNumber,
			"tracking_url":    label.TrackingURL,
			"label_url":       label.LabelURL,
		}).Error
}
