package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/payment"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// CreateIntentParams 建立payment intent的輸入
// 地址與運送選擇一併塞進intent metadata, finalize時原樣取回
type CreateIntentParams struct {
	UserID *uint
	Email  string
	Items  []PlaceOrderItem

	Street     string
	City       string
	PostalCode string
	Country    string

	ShippingCarrier string
	ShippingService string
	ShippingCost    decimal.Decimal
	ShippingRateID  string
}

// FinalizeOverrides finalize時允許client補上的欄位, 金額永遠以intent為準
type FinalizeOverrides struct {
	UserID *uint
	Email  string

	Street     string
	City       string
	PostalCode string
	Country    string
}

type IPaymentService interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*payment.PaymentIntent, error)
	FinalizeFromIntent(ctx context.Context, intentID string, overrides FinalizeOverrides) (*model.Order, bool, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type PaymentService struct {
	dbDao         db.UnifiedDB
	stripeClient  payment.IStripeClient
	orderService  IOrderService
	webhookSecret string
	logger        *zerolog.Logger
}

func NewPaymentService(
	dbDao db.UnifiedDB,
	stripeClient payment.IStripeClient,
	orderService IOrderService,
	webhookSecret string,
	logger *zerolog.Logger,
) IPaymentService {
	return &PaymentService{
		dbDao:         dbDao,
		stripeClient:  stripeClient,
		orderService:  orderService,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

var _ IPaymentService = (*PaymentService)(nil)

/*
CreateIntent server端重新計價後建立intent
client送來的價格一律不信, 金額從書目資料加運費算出
低於金流處理商最低收費直接拒絕
*/
func (p *PaymentService) CreateIntent(ctx context.Context, params CreateIntentParams) (*payment.PaymentIntent, error) {
	if len(params.Items) == 0 {
		return nil, er.New(er.BadRequestCode, "no items to pay for")
	}

	total, err := p.priceItems(ctx, params.Items)
	if err != nil {
		return nil, err
	}
	total = total.Add(params.ShippingCost)

	minTotal := decimal.RequireFromString(constants.MinOrderTotal)
	if total.LessThan(minTotal) {
		return nil, er.New(er.BadRequestCode,
			fmt.Sprintf("order total %s is below the processor minimum %s", total.StringFixed(2), constants.MinOrderTotal))
	}

	metadata := map[string]string{
		"items":            encodeItemsMetadata(params.Items),
		"street":           params.Street,
		"city":             params.City,
		"postal_code":      params.PostalCode,
		"country":          params.Country,
		"email":            params.Email,
		"shipping_carrier": params.ShippingCarrier,
		"shipping_service": params.ShippingService,
		"shipping_cost":    params.ShippingCost.StringFixed(2),
		"shipping_rate_id": params.ShippingRateID,
	}
	if params.UserID != nil {
		metadata["user_id"] = strconv.FormatUint(uint64(*params.UserID), 10)
	}

	amountMinor := total.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := p.stripeClient.CreatePaymentIntent(ctx, amountMinor, constants.SettlementCurrency, metadata)
	if err != nil {
		return nil, wrapProcessorError(err)
	}
	return intent, nil
}

/*
FinalizeFromIntent 同步結帳路徑: client確認付款後帶intent id回來
從intent metadata重建行項再走PlaceOrder, 與webhook共用payment id去重
intent未成功一律不建單
*/
func (p *PaymentService) FinalizeFromIntent(ctx context.Context, intentID string, overrides FinalizeOverrides) (*model.Order, bool, error) {
	if intentID == "" {
		return nil, false, er.New(er.BadRequestCode, "payment intent id is required")
	}

	intent, err := p.stripeClient.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, false, wrapProcessorError(err)
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, false, er.New(er.PaymentRequiredCode,
			fmt.Sprintf("payment intent status is %s", intent.Status)).
			WithDetails(map[string]string{"payment_intent_id": intent.ID})
	}

	items, err := decodeItemsMetadata(intent.Metadata["items"])
	if err != nil {
		return nil, false, er.Wrap(er.BadRequestCode, "intent metadata is malformed", err)
	}

	params := PlaceOrderParams{
		UserID:          overrides.UserID,
		Email:           firstNonEmpty(overrides.Email, intent.Metadata["email"], intent.ReceiptEmail),
		Items:           items,
		Street:          firstNonEmpty(overrides.Street, intent.Metadata["street"]),
		City:            firstNonEmpty(overrides.City, intent.Metadata["city"]),
		PostalCode:      firstNonEmpty(overrides.PostalCode, intent.Metadata["postal_code"]),
		Country:         firstNonEmpty(overrides.Country, intent.Metadata["country"]),
		PaymentMethod:   "stripe",
		PaymentID:       intent.ID,
		PaymentStatus:   intent.Status,
		PaymentAmount:   decimal.New(intent.Amount, -2),
		PaymentCurrency: strings.ToUpper(intent.Currency),
		ShippingCarrier: intent.Metadata["shipping_carrier"],
		ShippingService: intent.Metadata["shipping_service"],
		ShippingRateID:  intent.Metadata["shipping_rate_id"],
	}
	if params.UserID == nil {
		if raw, ok := intent.Metadata["user_id"]; ok && raw != "" {
			if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
				uid := uint(parsed)
				params.UserID = &uid
			}
		}
	}
	if raw := intent.Metadata["shipping_cost"]; raw != "" {
		if cost, err := decimal.NewFromString(raw); err == nil {
			params.ShippingCost = cost
		}
	}

	return p.orderService.PlaceOrder(ctx, params)
}

/*
HandleWebhook 非同步路徑: 先驗簽, 驗不過直接拒絕
只處理payment_intent.succeeded, 而且只推進既有訂單的付款欄位
訂單還不存在時不動作, 建單永遠走FinalizeFromIntent
*/
// HandleWebhook 驗簽不過回錯, 驗簽通過後的內部失敗只記log
// stripe拿到非2xx會重送, 但事件處理本身已冪等, 不需要靠重送補救
func (p *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := payment.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return er.Wrap(er.UnauthenticatedCode, "webhook signature verification failed", err)
	}

	if err := p.processWebhookEvent(ctx, event); err != nil && p.logger != nil {
		p.logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("webhook event processing failed")
	}
	return nil
}

func (p *PaymentService) processWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	if event.Type != payment.EventPaymentIntentSucceeded {
		return nil
	}

	var intent payment.PaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return er.Wrap(er.BadRequestCode, "webhook payload is malformed", err)
	}

	order, err := p.dbDao.GetOrderByPaymentID(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			if p.logger != nil {
				p.logger.Info().Str("payment_intent_id", intent.ID).
					Msg("webhook arrived before order finalize, nothing to update")
			}
			return nil
		}
		return err
	}

	return p.dbDao.MarkOrderPaid(ctx, order.OrderID, intent.Status, time.Now())
}

func (p *PaymentService) priceItems(ctx context.Context, items []PlaceOrderItem) (decimal.Decimal, error) {
	bookIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return decimal.Zero, er.New(er.BadRequestCode, fmt.Sprintf("invalid quantity for book %d", item.BookID))
		}
		bookIDs = append(bookIDs, item.BookID)
	}

	books, err := p.dbDao.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return decimal.Zero, err
	}
	byID := make(map[uint]model.Book, len(books))
	for _, b := range books {
		byID[b.BookID] = b
	}

	total := decimal.Zero
	for _, item := range items {
		book, ok := byID[item.BookID]
		if !ok {
			return decimal.Zero, er.New(er.BadRequestCode, fmt.Sprintf("book %d does not exist", item.BookID))
		}
		if !book.IsAvailable {
			return decimal.Zero, er.New(er.ConflictCode, fmt.Sprintf("book %d is not available", item.BookID))
		}
		total = total.Add(book.Price.Mul(decimalFromInt(item.Quantity)))
	}
	return total, nil
}

// encodeItemsMetadata "bookID:qty" 逗號相連, 塞進intent metadata
func encodeItemsMetadata(items []PlaceOrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d:%d", item.BookID, item.Quantity))
	}
	return strings.Join(parts, ",")
}

func decodeItemsMetadata(raw string) ([]PlaceOrderItem, error) {
	if raw == "" {
		return nil, errors.New("items metadata is empty")
	}
	parts := strings.Split(raw, ",")
	items := make([]PlaceOrderItem, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed item entry %q", part)
		}
		bookID, err := strconv.ParseUint(kv[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed book id %q", kv[0])
		}
		qty, err := strconv.Atoi(kv[1])
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("malformed quantity %q", kv[1])
		}
		items = append(items, PlaceOrderItem{BookID: uint(bookID), Quantity: qty})
	}
	return items, nil
}

func wrapProcessorError(err error) error {
	var pe *payment.ProcessorError
	if errors.As(err, &pe) {
		if pe.StatusCode >= 500 {
			return er.New(er.UpstreamErrorCode, "payment processor unavailable").WithDetails(pe.Message)
		}
		return er.New(er.BadRequestCode, pe.Message)
	}
	return er.Wrap(er.UpstreamErrorCode, "payment processor call failed", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
