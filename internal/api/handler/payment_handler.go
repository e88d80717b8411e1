package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/util"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
)

// webhook payload上限, stripe事件遠小於這個數字
const maxWebhookBodyBytes = 1 << 16

type PaymentHandler struct {
	paymentService service.IPaymentService
}

func NewPaymentHandler(paymentService service.IPaymentService) *PaymentHandler {
	if paymentService == nil {
		panic("paymentService cannot be nil")
	}
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// @Summary create payment intent for checkout
// @amount is recalculated server side from current book prices
// @Tags checkout
// @Accept json
// @Produce json
// @Param checkout body dto.CreateIntentDTO true "items, address and shipping choice"
// @Success 200 {object} api.Response{data=dto.CreateIntentResponse} "success"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Failure 502 {object} api.ResponseError{data=string} "UpstreamErrorCode"
// @Router /checkout/intent [post]
func (p *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var intentDTO dto.CreateIntentDTO
	if err := json.NewDecoder(r.Body).Decode(&intentDTO); err != nil {
		badRequestJSON(w)
		return
	}

	params := service.CreateIntentParams{
		Email:           intentDTO.Email,
		Items:           intentDTO.Items,
		Street:          intentDTO.Street,
		City:            intentDTO.City,
		PostalCode:      intentDTO.PostalCode,
		Country:         intentDTO.Country,
		ShippingCarrier: intentDTO.ShippingCarrier,
		ShippingService: intentDTO.ShippingService,
		ShippingCost:    intentDTO.ShippingCost,
		ShippingRateID:  intentDTO.ShippingRateID,
	}
	// 訪客結帳時payload為nil, 訂單不綁用戶
	if payload := util.GetTokenPayloadFromContext(r.Context()); payload != nil {
		params.UserID = &payload.UserID
	}

	intent, err := p.paymentService.CreateIntent(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, dto.CreateIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}, nil)
}

// @Summary finalize order after payment confirmation
// @Tags checkout
// @Accept json
// @Produce json
// @Param finalize body dto.FinalizeOrderDTO true "payment intent id and optional address overrides"
// @Success 200 {object} api.Response{data=dto.FinalizeOrderResponse} "success"
// @Failure 402 {object} api.ResponseError{data=string} "PaymentRequiredCode"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Router /checkout/finalize [post]
func (p *PaymentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var finalizeDTO dto.FinalizeOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&finalizeDTO); err != nil {
		badRequestJSON(w)
		return
	}

	overrides := service.FinalizeOverrides{
		Email:      finalizeDTO.Email,
		Street:     finalizeDTO.Street,
		City:       finalizeDTO.City,
		PostalCode: finalizeDTO.PostalCode,
		Country:    finalizeDTO.Country,
	}
	if payload := util.GetTokenPayloadFromContext(r.Context()); payload != nil {
		overrides.UserID = &payload.UserID
	}

	order, reused, err := p.paymentService.FinalizeFromIntent(r.Context(), finalizeDTO.PaymentIntentID, overrides)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, dto.FinalizeOrderResponse{
		OrderID: order.OrderID,
		Reused:  reused,
	}, nil)
}

// Webhook stripe事件入口
// 驗簽失敗回401, 驗簽通過後一律回200, 內部失敗由service記log
func (p *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		badRequestJSON(w)
		return
	}

	err = p.paymentService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}
