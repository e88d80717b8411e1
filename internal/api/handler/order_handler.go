package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/util"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{
		orderService: orderService,
	}
}

// @Summary place order with a confirmed payment result
// @client已在前端完成付款確認的同步下單路徑, 單價由server端重算
// @Tags order
// @Accept json
// @Produce json
// @Param order body dto.PlaceOrderDTO true "order payload"
// @Success 201 {object} api.Response{data=dto.PlaceOrderResponse} "created"
// @Failure 402 {object} api.ResponseError{data=string} "PaymentRequiredCode"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Router /orders [post]
func (o *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var placeDTO dto.PlaceOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&placeDTO); err != nil {
		badRequestJSON(w)
		return
	}

	params := service.PlaceOrderParams{
		Email: placeDTO.Email,
		Items: placeDTO.Items,

		Street:     placeDTO.Street,
		City:       placeDTO.City,
		PostalCode: placeDTO.PostalCode,
		Country:    placeDTO.Country,

		PaymentMethod:   placeDTO.PaymentMethod,
		PaymentID:       placeDTO.PaymentID,
		PaymentStatus:   placeDTO.PaymentStatus,
		PaymentAmount:   placeDTO.PaymentAmount,
		PaymentCurrency: placeDTO.PaymentCurrency,

		ShippingCarrier: placeDTO.ShippingCarrier,
		ShippingService: placeDTO.ShippingService,
		ShippingCost:    placeDTO.ShippingCost,
		ShippingRateID:  placeDTO.ShippingRateID,
	}
	if payload := util.GetTokenPayloadFromContext(r.Context()); payload != nil {
		params.UserID = &payload.UserID
	}

	order, reused, err := o.orderService.PlaceOrder(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := dto.PlaceOrderResponse{
		OrderID: order.OrderID,
		Reused:  reused,
	}
	if reused {
		api.SuccessJSON(w, resp, nil)
		return
	}
	api.CreatedJSON(w, resp)
}

// @Summary get order by id
// @guest orders are fetchable by anyone holding the order id
// @Tags order
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} api.Response{data=model.Order} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/{id} [get]
func (o *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := o.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 綁定用戶的訂單只有本人能看
	if order.UserID != nil {
		payload := util.GetTokenPayloadFromContext(r.Context())
		if payload == nil || payload.UserID != *order.UserID {
			api.ErrorJSON(w, int(er.UnauthorizedCode), nil, er.ErrStrMap[er.UnauthorizedCode])
			return
		}
	}

	api.SuccessJSON(w, order, nil)
}

// @Summary list orders of current user
// @Tags order
// @Produce json
// @Success 200 {object} api.Response{data=[]model.Order} "success"
// @Security     ApiKeyAuth
// @Router /orders [get]
func (o *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	orders, err := o.orderService.ListUserOrders(r.Context(), payload.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, orders, nil)
}

// @Summary list all orders
// @Tags order
// @Produce json
// @Param page query int false "page number"
// @Param page_size query int false "page size"
// @Success 200 {object} api.Response{data=[]model.Order,meta=dto.PageMeta} "success"
// @Security     ApiKeyAuth
// @Router /admin/orders [get]
func (o *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	orders, total, err := o.orderService.ListOrders(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, orders, dto.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

// @Summary update order status
// @only forward transitions of the order state machine are allowed
// @Tags order
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param status body dto.UpdateOrderStatusDTO true "target status"
// @Success 200 {object} api.Response{data=model.Order} "success"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Security     ApiKeyAuth
// @Router /admin/orders/{id}/status [patch]
func (o *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var statusDTO dto.UpdateOrderStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&statusDTO); err != nil {
		badRequestJSON(w)
		return
	}

	order, err := o.orderService.UpdateStatus(r.Context(), orderID, model.OrderStatus(statusDTO.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, order, nil)
}
