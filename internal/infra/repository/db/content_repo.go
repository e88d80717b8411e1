package db

import (
	"context"
	"errors"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrContentNotFound = errors.New("content page not found")
)

type ContentRepo struct {
	db *DbDao
}

func NewContentRepo(db *DbDao) *ContentRepo {
	return &ContentRepo{db: db}
}

func (s *ContentRepo) GetPage(ctx context.Context, slug string) (*model.ContentPage, error) {
	var page model.ContentPage
	err := s.db.WithContext(ctx).First(&page, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &page, nil
}

// UpsertPage 管理後台的頁面編輯, 不存在就建立
func (s *ContentRepo) UpsertPage(ctx context.Context, page *model.ContentPage) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "body", "image_url", "updated_by"}),
	}).Create(page).Error
}

func (s *ContentRepo) UpdatePageImage(ctx context.Context, slug, imageURL string) error {
	res := s.db.WithContext(ctx).Model(&model.ContentPage{}).
		Where("slug = ?", slug).
		Update("image_url", imageURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}
