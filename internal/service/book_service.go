package service

import (
	"context"
	"errors"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type IBookService interface {
	GetBook(ctx context.Context, bookID uint) (*model.Book, error)
	GetBooksByIDs(ctx context.Context, bookIDs []uint) ([]model.Book, error)
	ListBooks(ctx context.Context, page, pageSize int, search string) ([]model.Book, int64, error)
	CreateBook(ctx context.Context, book *model.Book) (*model.Book, error)
	UpdateBook(ctx context.Context, book *model.Book) (*model.Book, error)
	AddStock(ctx context.Context, bookID uint, quantity int) error
	DeleteBook(ctx context.Context, bookID uint) error
}

type BookService struct {
	dbDao db.UnifiedDB
}

func NewBookService(dbDao db.UnifiedDB) IBookService {
	return &BookService{dbDao: dbDao}
}

var _ IBookService = (*BookService)(nil)

func (b *BookService) GetBook(ctx context.Context, bookID uint) (*model.Book, error) {
	book, err := b.dbDao.GetBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, db.ErrBookNotFound) {
			return nil, er.New(er.NotFoundCode, "book not found")
		}
		return nil, err
	}
	return book, nil
}

func (b *BookService) GetBooksByIDs(ctx context.Context, bookIDs []uint) ([]model.Book, error) {
	return b.dbDao.GetBooksByIDs(ctx, bookIDs)
}

func (b *BookService) ListBooks(ctx context.Context, page, pageSize int, search string) ([]model.Book, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return b.dbDao.GetBooksPaginated(ctx, page, pageSize, search)
}

func (b *BookService) CreateBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	if book.Title == "" || book.Author == "" {
		return nil, er.New(er.BadRequestCode, "title and author are required")
	}
	if book.Price.IsNegative() {
		return nil, er.New(er.BadRequestCode, "price must not be negative")
	}

	book.IsAvailable = book.Stock > 0
	if err := b.dbDao.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (b *BookService) UpdateBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	existing, err := b.GetBook(ctx, book.BookID)
	if err != nil {
		return nil, err
	}

	// 庫存只能走AddStock或下單交易調整
	book.Stock = existing.Stock
	book.IsAvailable = existing.IsAvailable
	if err := b.dbDao.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (b *BookService) AddStock(ctx context.Context, bookID uint, quantity int) error {
	if quantity <= 0 {
		return er.New(er.BadRequestCode, "quantity must be positive")
	}
	if err := b.dbDao.AddBookStock(ctx, bookID, quantity); err != nil {
		if errors.Is(err, db.ErrBookNotFound) {
			return er.New(er.NotFoundCode, "book not found")
		}
		return err
	}
	return nil
}

func (b *BookService) DeleteBook(ctx context.Context, bookID uint) error {
	if err := b.dbDao.DeleteBook(ctx, bookID); err != nil {
		if errors.Is(err, db.ErrBookNotFound) {
			return er.New(er.NotFoundCode, "book not found")
		}
		return err
	}
	return nil
}
