package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/payment"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/producer"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type PlaceOrderItem struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// PlaceOrderParams 下單輸入, 單價一律由server端從書目資料重算
type PlaceOrderParams struct {
	UserID *uint
	Email  string
	Items  []PlaceOrderItem

	Street     string
	City       string
	PostalCode string
	Country    string

	PaymentMethod   string
	PaymentID       string
	PaymentStatus   string
	PaymentAmount   decimal.Decimal
	PaymentCurrency string

	ShippingCarrier string
	ShippingService string
	ShippingCost    decimal.Decimal
	ShippingRateID  string
}

type IOrderService interface {
	PlaceOrder(ctx context.Context, params PlaceOrderParams) (*model.Order, bool, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID uint) ([]model.Order, error)
	ListOrders(ctx context.Context, page, pageSize int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

type OrderService struct {
	dbDao           db.UnifiedDB
	shippingService IShippingService
	mailService     IMailService
	stripeClient    payment.IStripeClient
	eventProducer   producer.IOrderEventProducer
	logger          *zerolog.Logger
}

func NewOrderService(
	dbDao db.UnifiedDB,
	shippingService IShippingService,
	mailService IMailService,
	stripeClient payment.IStripeClient,
	eventProducer producer.IOrderEventProducer,
	logger *zerolog.Logger,
) IOrderService {
	return &OrderService{
		dbDao:           dbDao,
		shippingService: shippingService,
		mailService:     mailService,
		stripeClient:    stripeClient,
		eventProducer:   eventProducer,
		logger:          logger,
	}
}

var _ IOrderService = (*OrderService)(nil)

/*
PlaceOrder 下單主流程
前置檢核 -> server端重新計價 -> 單一交易寫單扣庫存清購物車 -> commit後副作用
同payment id重複提交會拿回既有訂單 (reused=true), 不會重複扣庫存
副作用(標籤, 金流註記, 發票信, 事件)失敗只記log, 已提交的訂單不回滾
*/
func (o *OrderService) PlaceOrder(ctx context.Context, params PlaceOrderParams) (*model.Order, bool, error) {
	if err := validatePlaceOrder(params); err != nil {
		return nil, false, err
	}

	order, err := o.buildOrder(ctx, params)
	if err != nil {
		return nil, false, err
	}

	created, reused, err := o.dbDao.CreateOrderWithInventory(ctx, order, params.UserID)
	if err != nil {
		var stockErr *db.StockNotEnoughError
		if errors.As(err, &stockErr) {
			return nil, false, er.New(er.ConflictCode, "insufficient stock").
				WithDetails(map[string]uint{"book_id": stockErr.BookID})
		}
		return nil, false, err
	}

	if !reused {
		o.runPostCommitEffects(ctx, created, params)
	}
	return created, reused, nil
}

func validatePlaceOrder(params PlaceOrderParams) error {
	if len(params.Items) == 0 {
		return er.New(er.BadRequestCode, "order has no items")
	}
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return er.New(er.BadRequestCode, fmt.Sprintf("invalid quantity for book %d", item.BookID))
		}
	}
	if params.Street == "" || params.City == "" || params.PostalCode == "" || params.Country == "" {
		return er.New(er.BadRequestCode, "shipping address is incomplete")
	}
	if params.PaymentID == "" {
		return er.New(er.BadRequestCode, "payment id is required")
	}
	if params.PaymentStatus != payment.IntentStatusSucceeded {
		return er.New(er.PaymentRequiredCode, "payment has not succeeded")
	}
	return nil
}

// buildOrder 從目前書目資料組出訂單快照, 不信任client端價格
func (o *OrderService) buildOrder(ctx context.Context, params PlaceOrderParams) (*model.Order, error) {
	bookIDs := make([]uint, 0, len(params.Items))
	for _, item := range params.Items {
		bookIDs = append(bookIDs, item.BookID)
	}
	books, err := o.dbDao.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Book, len(books))
	for _, b := range books {
		byID[b.BookID] = b
	}

	total := params.ShippingCost
	orderItems := make([]model.OrderItem, 0, len(params.Items))
	for _, item := range params.Items {
		book, ok := byID[item.BookID]
		if !ok {
			return nil, er.New(er.BadRequestCode, fmt.Sprintf("book %d does not exist", item.BookID))
		}
		orderItems = append(orderItems, model.OrderItem{
			BookID:    book.BookID,
			Quantity:  item.Quantity,
			UnitPrice: book.Price,
			Title:     book.Title,
		})
		total = total.Add(book.Price.Mul(decimalFromInt(item.Quantity)))
	}

	minTotal := decimal.RequireFromString(constants.MinOrderTotal)
	if total.LessThan(minTotal) {
		return nil, er.New(er.BadRequestCode,
			fmt.Sprintf("order total %s is below the processor minimum %s", total.StringFixed(2), constants.MinOrderTotal))
	}

	currency := params.PaymentCurrency
	if currency == "" {
		currency = constants.SettlementCurrency
	}

	now := time.Now()
	return &model.Order{
		OrderID:         uuid.NewString(),
		UserID:          params.UserID,
		OrderItems:      orderItems,
		Street:          params.Street,
		City:            params.City,
		PostalCode:      params.PostalCode,
		Country:         params.Country,
		PaymentMethod:   params.PaymentMethod,
		PaymentID:       params.PaymentID,
		PaymentStatus:   params.PaymentStatus,
		PaymentAmount:   params.PaymentAmount,
		PaymentCurrency: currency,
		TotalPrice:      total,
		IsPaid:          true,
		PaidAt:          &now,
		Status:          model.OrderStatusProcessing,
		ShippingCarrier: params.ShippingCarrier,
		ShippingService: params.ShippingService,
		ShippingCost:    params.ShippingCost,
		ShippingRateID:  params.ShippingRateID,
	}, nil
}

// runPostCommitEffects 訂單已落地後的盡力而為動作
func (o *OrderService) runPostCommitEffects(ctx context.Context, order *model.Order, params PlaceOrderParams) {
	if order.ShippingRateID != "" && order.ShippingCarrier != constants.SelfPickupCarrier && o.shippingService != nil {
		label, err := o.shippingService.PurchaseLabel(ctx, order.ShippingRateID)
		if err != nil {
			o.logEffectError(order.OrderID, "purchase shipping label", err)
		} else if err := o.dbDao.UpdateOrderTracking(ctx, order.OrderID, label); err != nil {
			o.logEffectError(order.OrderID, "persist tracking info", err)
		} else {
			order.TrackingNumber = &label.TrackingNumber
			order.TrackingURL = &label.TrackingURL
			order.LabelURL = &label.LabelURL
		}
	}

	if o.stripeClient != nil {
		_, err := o.stripeClient.UpdateIntentMetadata(ctx, order.PaymentID, map[string]string{"order_id": order.OrderID})
		if err != nil {
			o.logEffectError(order.OrderID, "annotate payment intent", err)
		}
	}

	if o.mailService != nil {
		recipientEmail, recipientName := o.resolveRecipient(ctx, order, params)
		if recipientEmail != "" {
			orderCopy := *order
			go func() {
				mailCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				if err := o.mailService.SendInvoiceEmail(mailCtx, &orderCopy, recipientEmail, recipientName); err != nil {
					o.logEffectError(orderCopy.OrderID, "send invoice email", err)
				}
			}()
		}
	}

	if o.eventProducer != nil {
		event := producer.OrderEvent{
			EventType:  producer.EventOrderCreated,
			OrderID:    order.OrderID,
			UserID:     order.UserID,
			TotalPrice: order.TotalPrice,
			Currency:   order.PaymentCurrency,
			Status:     string(order.Status),
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := o.eventProducer.Publish(pubCtx, event); err != nil {
				o.logEffectError(event.OrderID, "publish order event", err)
			}
		}()
	}
}

func (o *OrderService) resolveRecipient(ctx context.Context, order *model.Order, params PlaceOrderParams) (email, name string) {
	if order.UserID != nil {
		if user, err := o.dbDao.GetUserByID(ctx, *order.UserID); err == nil {
			return user.UserEmail, user.UserName
		}
	}
	return params.Email, ""
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := o.dbDao.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			return nil, er.New(er.NotFoundCode, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (o *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	return o.dbDao.GetOrdersByUserID(ctx, userID)
}

func (o *OrderService) ListOrders(ctx context.Context, page, pageSize int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return o.dbDao.GetOrdersPaginated(ctx, page, pageSize)
}

// UpdateStatus 管理員調整訂單狀態, 違反狀態機回409
func (o *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	order, err := o.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransition(status) {
		return nil, er.New(er.ConflictCode,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, status))
	}

	if err := o.dbDao.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	if status == model.OrderStatusShipped && o.eventProducer != nil {
		err := o.eventProducer.Publish(ctx, producer.OrderEvent{
			EventType:  producer.EventOrderShipped,
			OrderID:    order.OrderID,
			UserID:     order.UserID,
			TotalPrice: order.TotalPrice,
			Currency:   order.PaymentCurrency,
			Status:     string(status),
		})
		if err != nil {
			o.logEffectError(order.OrderID, "publish order event", err)
		}
	}
	return order, nil
}

func (o *OrderService) logEffectError(orderID, action string, err error) {
	if o.logger != nil {
		o.logger.Error().Err(err).Str("order_id", orderID).Msgf("post-commit effect failed: %s", action)
	}
}
