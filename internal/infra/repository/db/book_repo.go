package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrBookNotFound 書籍不存在
	ErrBookNotFound = errors.New("book not found")
)

// StockNotEnoughError 庫存不足, 帶上造成失敗的書籍ID供呼叫端回報
type StockNotEnoughError struct {
	BookID uint
}

func (e *StockNotEnoughError) Error() string {
	return fmt.Sprintf("book %d stock not enough", e.BookID)
}

type BookRepo struct {
	db *DbDao
}

func NewBookRepo(db *DbDao) *BookRepo {
	return &BookRepo{db: db}
}

func (s *BookRepo) CreateBook(ctx context.Context, book *model.Book) error {
	return s.db.WithContext(ctx).Create(book).Error
}

func (s *BookRepo) GetBookByID(ctx context.Context, bookID uint) (*model.Book, error) {
	var book model.Book
	err := s.db.WithContext(ctx).First(&book, "book_id = ?", bookID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (s *BookRepo) GetBooksByIDs(ctx context.Context, bookIDs []uint) ([]model.Book, error) {
	var books []model.Book
	err := s.db.WithContext(ctx).Where("book_id IN ?", bookIDs).Find(&books).Error
	return books, err
}

// 分頁查詢書籍, search比對書名與作者
func (s *BookRepo) GetBooksPaginated(ctx context.Context, page, pageSize int, search string) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	offset := (page - 1) * pageSize
	query := s.db.WithContext(ctx).Model(&model.Book{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", pattern, pattern)
	}

	// 計算總數
	query.Count(&total)

	err := query.Offset(offset).Limit(pageSize).Order("book_id").Find(&books).Error
	return books, total, err
}

// Update - 更新書籍
func (s *BookRepo) UpdateBook(ctx context.Context, book *model.Book) error {
	return s.db.WithContext(ctx).Save(book).Error
}

// Update - 增加庫存
func (s *BookRepo) AddBookStock(ctx context.Context, bookID uint, quantity int) error {
	return s.db.WithContext(ctx).Model(&model.Book{}).
		Where("book_id = ?", bookID).
		Updates(map[string]interface{}{
			"stock":        gorm.Expr("stock + ?", quantity),
			"is_available": true,
		}).Error
}

// Delete - 軟刪除書籍
func (s *BookRepo) DeleteBook(ctx context.Context, bookID uint) error {
	return s.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&model.Book{}).Error
}

/*
deductStockTx 原子性扣減庫存
充足性檢查與扣減在同一個UPDATE述詞內完成, 不做先讀後寫,
避免兩個結帳同時搶最後一本時超賣; 剩餘庫存歸零時同一句順便關閉可售狀態
RowsAffected為0代表庫存不足(或書籍不存在)
*/
func deductStockTx(tx *gorm.DB, bookID uint, quantity int) error {
	res := tx.Model(&model.Book{}).
		Where("book_id = ? AND stock >= ?", bookID, quantity).
		Updates(map[string]interface{}{
			"stock":        gorm.Expr("stock - ?", quantity),
			"is_available": gorm.Expr("stock - ? > 0", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &StockNotEnoughError{BookID: bookID}
	}
	return nil
}
