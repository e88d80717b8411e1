package service

import (
	"context"
	"errors"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// CartEntry 購物車行項加上書籍明細, 給前端渲染用
type CartEntry struct {
	Book     model.Book `json:"book"`
	Quantity int        `json:"quantity"`
}

type ICartService interface {
	GetCart(ctx context.Context, userID uint) ([]CartEntry, error)
	SetCartItem(ctx context.Context, userID, bookID uint, quantity int) error
	RemoveCartItem(ctx context.Context, userID, bookID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

type CartService struct {
	dbDao db.UnifiedDB
}

func NewCartService(dbDao db.UnifiedDB) ICartService {
	return &CartService{dbDao: dbDao}
}

var _ ICartService = (*CartService)(nil)

func (c *CartService) GetCart(ctx context.Context, userID uint) ([]CartEntry, error) {
	items, err := c.dbDao.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []CartEntry{}, nil
	}

	bookIDs := make([]uint, 0, len(items))
	for _, it := range items {
		bookIDs = append(bookIDs, it.BookID)
	}
	books, err := c.dbDao.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]model.Book, len(books))
	for _, b := range books {
		byID[b.BookID] = b
	}

	entries := make([]CartEntry, 0, len(items))
	for _, it := range items {
		book, ok := byID[it.BookID]
		if !ok {
			// 書已下架, 購物車行項跳過不顯示
			continue
		}
		entries = append(entries, CartEntry{Book: book, Quantity: it.Quantity})
	}
	return entries, nil
}

// SetCartItem quantity<=0視為刪除該行項
func (c *CartService) SetCartItem(ctx context.Context, userID, bookID uint, quantity int) error {
	if quantity <= 0 {
		return c.RemoveCartItem(ctx, userID, bookID)
	}

	book, err := c.dbDao.GetBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, db.ErrBookNotFound) {
			return er.New(er.NotFoundCode, "book not found")
		}
		return err
	}
	if !book.IsAvailable {
		return er.New(er.ConflictCode, "book is not available")
	}

	return c.dbDao.UpsertCartItem(ctx, &model.CartItem{
		UserID:   userID,
		BookID:   bookID,
		Quantity: quantity,
	})
}

func (c *CartService) RemoveCartItem(ctx context.Context, userID, bookID uint) error {
	return c.dbDao.DeleteCartItem(ctx, userID, bookID)
}

func (c *CartService) ClearCart(ctx context.Context, userID uint) error {
	return c.dbDao.ClearCart(ctx, userID)
}
