package handler

import (
	"encoding/json"
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
)

type ShippingHandler struct {
	shippingService service.IShippingService
	bookService     service.IBookService
}

func NewShippingHandler(shippingService service.IShippingService, bookService service.IBookService) *ShippingHandler {
	if shippingService == nil {
		panic("shippingService cannot be nil")
	}
	if bookService == nil {
		panic("bookService cannot be nil")
	}
	return &ShippingHandler{
		shippingService: shippingService,
		bookService:     bookService,
	}
}

// @Summary quote shipping rates
// @estimate_only true only needs country and postal code
// @Tags shipping
// @Accept json
// @Produce json
// @Param quote body dto.QuoteDTO true "destination and items"
// @Success 200 {object} api.Response{data=service.QuoteResult} "success"
// @Failure 429 {object} api.ResponseError{data=string} "TooManyRequestsCode"
// @Failure 502 {object} api.ResponseError{data=string} "UpstreamErrorCode"
// @Router /shipping/quote [post]
func (s *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var quoteDTO dto.QuoteDTO
	if err := json.NewDecoder(r.Body).Decode(&quoteDTO); err != nil {
		badRequestJSON(w)
		return
	}

	items, err := s.resolveParcelItems(r, quoteDTO.Items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := s.shippingService.Quote(r.Context(), service.QuoteRequest{
		Country:      quoteDTO.Country,
		PostalCode:   quoteDTO.PostalCode,
		City:         quoteDTO.City,
		Street:       quoteDTO.Street,
		Email:        quoteDTO.Email,
		Items:        items,
		EstimateOnly: quoteDTO.EstimateOnly,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, result, nil)
}

// @Summary purchase shipping label for a quoted rate
// @建單後標籤購買失敗時的手動補購入口
// @Tags shipping
// @Accept json
// @Produce json
// @Param rate body dto.PurchaseLabelDTO true "rate id from a previous quote"
// @Success 200 {object} api.Response{data=model.Label} "success"
// @Failure 502 {object} api.ResponseError{data=string} "UpstreamErrorCode"
// @Security     ApiKeyAuth
// @Router /admin/shipping/label [post]
func (s *ShippingHandler) PurchaseLabel(w http.ResponseWriter, r *http.Request) {
	var labelDTO dto.PurchaseLabelDTO
	if err := json.NewDecoder(r.Body).Decode(&labelDTO); err != nil {
		badRequestJSON(w)
		return
	}
	if labelDTO.RateID == "" {
		badRequestJSON(w)
		return
	}

	label, err := s.shippingService.PurchaseLabel(r.Context(), labelDTO.RateID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, label, nil)
}

// resolveParcelItems 用書目資料換出每個品項的重量與尺寸
// 未量測的欄位留0, 由包裹估算器帶入預設值
func (s *ShippingHandler) resolveParcelItems(r *http.Request, items []dto.QuoteItemDTO) ([]model.ParcelItem, error) {
	bookIDs := make([]uint, 0, len(items))
	for _, item := range items {
		bookIDs = append(bookIDs, item.BookID)
	}

	books, err := s.bookService.GetBooksByIDs(r.Context(), bookIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Book, len(books))
	for _, book := range books {
		byID[book.BookID] = book
	}

	parcelItems := make([]model.ParcelItem, 0, len(items))
	for _, item := range items {
		book, ok := byID[item.BookID]
		if !ok {
			continue
		}
		parcelItems = append(parcelItems, model.ParcelItem{
			WeightGrams: book.WeightGrams,
			WidthCm:     book.WidthCm,
			HeightCm:    book.HeightCm,
			ThicknessCm: book.ThicknessCm,
			Quantity:    item.Quantity,
		})
	}
	return parcelItems, nil
}
