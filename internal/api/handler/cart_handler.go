package handler

import (
	"encoding/json"
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/util"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type CartHandler struct {
	cartService     service.ICartService
	wishlistService service.IWishlistService
}

func NewCartHandler(cartService service.ICartService, wishlistService service.IWishlistService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	if wishlistService == nil {
		panic("wishlistService cannot be nil")
	}
	return &CartHandler{
		cartService:     cartService,
		wishlistService: wishlistService,
	}
}

// userIDFromContext 購物車路由掛在AuthMiddleware後面, payload一定存在
func userIDFromContext(r *http.Request) (uint, bool) {
	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		return 0, false
	}
	return payload.UserID, true
}

// @Summary get cart content
// @Tags cart
// @Produce json
// @Success 200 {object} api.Response{data=[]dto.CartEntryDTO} "success"
// @Security     ApiKeyAuth
// @Router /cart [get]
func (c *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	entries, err := c.cartService.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entryDTOs := make([]dto.CartEntryDTO, 0, len(entries))
	for _, entry := range entries {
		entryDTOs = append(entryDTOs, dto.CartEntryDTO{
			Book:     convertBookModelToDTO(entry.Book),
			Quantity: entry.Quantity,
		})
	}
	api.SuccessJSON(w, entryDTOs, nil)
}

// @Summary set cart item quantity
// @quantity 0 or below removes the item
// @Tags cart
// @Accept json
// @Produce json
// @Param item body dto.SetCartItemDTO true "book id and quantity"
// @Success 200 {object} api.Response "success"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Security     ApiKeyAuth
// @Router /cart/items [put]
func (c *CartHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	var itemDTO dto.SetCartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&itemDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := c.cartService.SetCartItem(r.Context(), userID, itemDTO.BookID, itemDTO.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary remove cart item
// @Tags cart
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} api.Response "success"
// @Security     ApiKeyAuth
// @Router /cart/items/{id} [delete]
func (c *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	if err := c.cartService.RemoveCartItem(r.Context(), userID, bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary clear cart
// @Tags cart
// @Produce json
// @Success 200 {object} api.Response "success"
// @Security     ApiKeyAuth
// @Router /cart [delete]
func (c *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	if err := c.cartService.ClearCart(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary get wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {object} api.Response{data=[]dto.BookDTO} "success"
// @Security     ApiKeyAuth
// @Router /wishlist [get]
func (c *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	books, err := c.wishlistService.GetWishlist(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	bookDTOs := make([]dto.BookDTO, 0, len(books))
	for _, book := range books {
		bookDTOs = append(bookDTOs, convertBookModelToDTO(book))
	}
	api.SuccessJSON(w, bookDTOs, nil)
}

// @Summary add book to wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Param item body dto.WishlistItemDTO true "book id"
// @Success 200 {object} api.Response "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Security     ApiKeyAuth
// @Router /wishlist [post]
func (c *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	var itemDTO dto.WishlistItemDTO
	if err := json.NewDecoder(r.Body).Decode(&itemDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := c.wishlistService.AddToWishlist(r.Context(), userID, itemDTO.BookID); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary remove book from wishlist
// @Tags wishlist
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} api.Response "success"
// @Security     ApiKeyAuth
// @Router /wishlist/{id} [delete]
func (c *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	if err := c.wishlistService.RemoveFromWishlist(r.Context(), userID, bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}
