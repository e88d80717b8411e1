package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
)

type BookHandler struct {
	bookService service.IBookService
}

func NewBookHandler(bookService service.IBookService) *BookHandler {
	if bookService == nil {
		panic("bookService cannot be nil")
	}
	return &BookHandler{
		bookService: bookService,
	}
}

// bookIDFromURL 解析路徑參數{id}
func bookIDFromURL(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// @Summary list books
// @Tags book
// @Produce json
// @Param page query int false "page number"
// @Param page_size query int false "page size"
// @Param search query string false "search in title and author"
// @Success 200 {object} api.Response{data=[]dto.BookDTO,meta=dto.PageMeta} "success"
// @Router /books [get]
func (b *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	search := r.URL.Query().Get("search")

	books, total, err := b.bookService.ListBooks(r.Context(), page, pageSize, search)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	bookDTOs := make([]dto.BookDTO, 0, len(books))
	for _, book := range books {
		bookDTOs = append(bookDTOs, convertBookModelToDTO(book))
	}
	api.SuccessJSON(w, bookDTOs, dto.PageMeta{Page: page, PageSize: pageSize, Total: total})
}

// @Summary get book by id
// @Tags book
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} api.Response{data=dto.BookDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /books/{id} [get]
func (b *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	book, err := b.bookService.GetBook(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertBookModelToDTO(*book), nil)
}

// @Summary create book
// @Tags book
// @Accept json
// @Produce json
// @Param book body dto.UpsertBookDTO true "book data"
// @Success 201 {object} api.Response{data=dto.BookDTO} "success"
// @Security     ApiKeyAuth
// @Router /admin/books [post]
func (b *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var upsertDTO dto.UpsertBookDTO
	if err := json.NewDecoder(r.Body).Decode(&upsertDTO); err != nil {
		badRequestJSON(w)
		return
	}

	book, err := b.bookService.CreateBook(r.Context(), convertUpsertDTOToModel(0, upsertDTO))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.CreatedJSON(w, convertBookModelToDTO(*book))
}

// @Summary update book
// @Tags book
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param book body dto.UpsertBookDTO true "book data"
// @Success 200 {object} api.Response{data=dto.BookDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Security     ApiKeyAuth
// @Router /admin/books/{id} [put]
func (b *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	var upsertDTO dto.UpsertBookDTO
	if err := json.NewDecoder(r.Body).Decode(&upsertDTO); err != nil {
		badRequestJSON(w)
		return
	}

	book, err := b.bookService.UpdateBook(r.Context(), convertUpsertDTOToModel(bookID, upsertDTO))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertBookModelToDTO(*book), nil)
}

// @Summary add stock
// @Tags book
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param stock body dto.AddStockDTO true "quantity to add"
// @Success 200 {object} api.Response "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Security     ApiKeyAuth
// @Router /admin/books/{id}/stock [post]
func (b *BookHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	var stockDTO dto.AddStockDTO
	if err := json.NewDecoder(r.Body).Decode(&stockDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := b.bookService.AddStock(r.Context(), bookID, stockDTO.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary delete book
// @Tags book
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} api.Response "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Security     ApiKeyAuth
// @Router /admin/books/{id} [delete]
func (b *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	bookID, ok := bookIDFromURL(r)
	if !ok {
		badRequestJSON(w)
		return
	}

	if err := b.bookService.DeleteBook(r.Context(), bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

func convertUpsertDTOToModel(bookID uint, upsertDTO dto.UpsertBookDTO) *model.Book {
	return &model.Book{
		BookID:      bookID,
		Title:       upsertDTO.Title,
		Author:      upsertDTO.Author,
		Description: upsertDTO.Description,
		Price:       upsertDTO.Price,
		Stock:       upsertDTO.Stock,
		IsAvailable: upsertDTO.IsAvailable,
		CoverURL:    upsertDTO.CoverURL,
		WidthCm:     upsertDTO.WidthCm,
		HeightCm:    upsertDTO.HeightCm,
		ThicknessCm: upsertDTO.ThicknessCm,
		WeightGrams: upsertDTO.WeightGrams,
	}
}
