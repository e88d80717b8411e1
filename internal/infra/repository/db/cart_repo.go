package db

import (
	"context"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"gorm.io/gorm/clause"
)

type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

func (s *CartRepo) GetCartItems(ctx context.Context, userID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error
	return items, err
}

// UpsertCartItem 同一本書重複加入時更新數量
func (s *CartRepo) UpsertCartItem(ctx context.Context, item *model.CartItem) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(item).Error
}

func (s *CartRepo) DeleteCartItem(ctx context.Context, userID, bookID uint) error {
	return s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&model.CartItem{}).Error
}

func (s *CartRepo) ClearCart(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

type WishlistRepo struct {
	db *DbDao
}

func NewWishlistRepo(db *DbDao) *WishlistRepo {
	return &WishlistRepo{db: db}
}

func (s *WishlistRepo) GetWishlistItems(ctx context.Context, userID uint) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error
	return items, err
}

func (s *WishlistRepo) AddWishlistItem(ctx context.Context, item *model.WishlistItem) error {
	// 重複加入視為成功
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error
}

func (s *WishlistRepo) DeleteWishlistItem(ctx context.Context, userID, bookID uint) error {
	return s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&model.WishlistItem{}).Error
}
