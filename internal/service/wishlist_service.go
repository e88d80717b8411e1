package service

import (
	"context"
	"errors"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type IWishlistService interface {
	GetWishlist(ctx context.Context, userID uint) ([]model.Book, error)
	AddToWishlist(ctx context.Context, userID, bookID uint) error
	RemoveFromWishlist(ctx context.Context, userID, bookID uint) error
}

type WishlistService struct {
	dbDao db.UnifiedDB
}

func NewWishlistService(dbDao db.UnifiedDB) IWishlistService {
	return &WishlistService{dbDao: dbDao}
}

var _ IWishlistService = (*WishlistService)(nil)

func (w *WishlistService) GetWishlist(ctx context.Context, userID uint) ([]model.Book, error) {
	items, err := w.dbDao.GetWishlistItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []model.Book{}, nil
	}

	bookIDs := make([]uint, 0, len(items))
	for _, it := range items {
		bookIDs = append(bookIDs, it.BookID)
	}
	return w.dbDao.GetBooksByIDs(ctx, bookIDs)
}

func (w *WishlistService) AddToWishlist(ctx context.Context, userID, bookID uint) error {
	if _, err := w.dbDao.GetBookByID(ctx, bookID); err != nil {
		if errors.Is(err, db.ErrBookNotFound) {
			return er.New(er.NotFoundCode, "book not found")
		}
		return err
	}
	return w.dbDao.AddWishlistItem(ctx, &model.WishlistItem{UserID: userID, BookID: bookID})
}

func (w *WishlistService) RemoveFromWishlist(ctx context.Context, userID, bookID uint) error {
	return w.dbDao.DeleteWishlistItem(ctx, userID, bookID)
}
