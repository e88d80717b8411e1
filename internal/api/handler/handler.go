package handler

import (
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// handleServiceError 統一處理service層回傳的錯誤
// AnaError的Code就是http status, 其餘一律500
func handleServiceError(w http.ResponseWriter, err error) {
	if anaErr, ok := er.AsAnaError(err); ok {
		api.ErrorJSON(w, int(anaErr.Code), anaErr.Details, er.ErrStrMap[anaErr.Code])
		return
	}
	api.ErrorJSON(w, int(er.InternalErrorCode), nil, er.ErrStrMap[er.InternalErrorCode])
}

func badRequestJSON(w http.ResponseWriter) {
	api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
}

func convertBookModelToDTO(book model.Book) dto.BookDTO {
	return dto.BookDTO{
		BookID:      book.BookID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Price:       book.Price,
		Stock:       book.Stock,
		IsAvailable: book.IsAvailable,
		CoverURL:    book.CoverURL,
	}
}

func convertUserModelToDTO(user model.User) dto.UserDTO {
	return dto.UserDTO{
		ID:      user.UserID,
		Email:   user.UserEmail,
		Name:    user.UserName,
		IsAdmin: user.IsAdmin,
	}
}
