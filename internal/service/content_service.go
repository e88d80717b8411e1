package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// 固定的頁面slug清單, 不接受動態新增頁面
var allowedSlugs = map[string]bool{
	"about":   true,
	"contact": true,
	"faq":     true,
	"imprint": true,
	"privacy": true,
}

type IContentService interface {
	GetPage(ctx context.Context, slug string) (*model.ContentPage, error)
	UpdatePage(ctx context.Context, slug, title, body string, updatedBy uint) (*model.ContentPage, error)
	UploadPageImage(ctx context.Context, slug, filename string, file io.Reader) (string, error)
}

type ContentService struct {
	dbDao    db.UnifiedDB
	assetDir string
}

func NewContentService(dbDao db.UnifiedDB, assetDir string) IContentService {
	return &ContentService{
		dbDao:    dbDao,
		assetDir: assetDir,
	}
}

var _ IContentService = (*ContentService)(nil)

func (c *ContentService) GetPage(ctx context.Context, slug string) (*model.ContentPage, error) {
	if !allowedSlugs[slug] {
		return nil, er.New(er.NotFoundCode, "unknown content page")
	}

	page, err := c.dbDao.GetPage(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrContentNotFound) {
			// 頁面還沒被編輯過, 回空白頁而不是404
			return &model.ContentPage{Slug: slug}, nil
		}
		return nil, err
	}
	return page, nil
}

func (c *ContentService) UpdatePage(ctx context.Context, slug, title, body string, updatedBy uint) (*model.ContentPage, error) {
	if !allowedSlugs[slug] {
		return nil, er.New(er.NotFoundCode, "unknown content page")
	}
	if title == "" {
		return nil, er.New(er.BadRequestCode, "title is required")
	}

	page := &model.ContentPage{
		Slug:      slug,
		Title:     title,
		Body:      body,
		UpdatedBy: &updatedBy,
	}
	if err := c.dbDao.UpsertPage(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

// UploadPageImage 存到本地assets目錄, 回傳可被靜態路由存取的相對路徑
func (c *ContentService) UploadPageImage(ctx context.Context, slug, filename string, file io.Reader) (string, error) {
	if !allowedSlugs[slug] {
		return "", er.New(er.NotFoundCode, "unknown content page")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", er.New(er.BadRequestCode, "unsupported image type")
	}

	if err := os.MkdirAll(c.assetDir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", slug, uuid.NewString(), ext)
	dst, err := os.Create(filepath.Join(c.assetDir, name))
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write asset file: %w", err)
	}

	imageURL := "/assets/" + name
	if err := c.dbDao.UpdatePageImage(ctx, slug, imageURL); err != nil {
		return "", err
	}
	return imageURL, nil
}
