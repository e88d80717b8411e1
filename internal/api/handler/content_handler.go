package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/util"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// 上傳圖片大小上限
const maxUploadBytes = 5 << 20

type ContentHandler struct {
	contentService service.IContentService
}

func NewContentHandler(contentService service.IContentService) *ContentHandler {
	if contentService == nil {
		panic("contentService cannot be nil")
	}
	return &ContentHandler{
		contentService: contentService,
	}
}

// @Summary get content page
// @unedited pages return empty title and body
// @Tags content
// @Produce json
// @Param slug path string true "page slug"
// @Success 200 {object} api.Response{data=model.ContentPage} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /pages/{slug} [get]
func (c *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := c.contentService.GetPage(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, page, nil)
}

// @Summary update content page
// @Tags content
// @Accept json
// @Produce json
// @Param slug path string true "page slug"
// @Param page body dto.UpdatePageDTO true "title and body"
// @Success 200 {object} api.Response{data=model.ContentPage} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Security     ApiKeyAuth
// @Router /admin/pages/{slug} [put]
func (c *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	var pageDTO dto.UpdatePageDTO
	if err := json.NewDecoder(r.Body).Decode(&pageDTO); err != nil {
		badRequestJSON(w)
		return
	}

	page, err := c.contentService.UpdatePage(r.Context(), slug, pageDTO.Title, pageDTO.Body, payload.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, page, nil)
}

// @Summary upload page image
// @multipart field name is "image"
// @Tags content
// @Accept mpfd
// @Produce json
// @Param slug path string true "page slug"
// @Success 200 {object} api.Response{data=dto.UploadImageResponse} "success"
// @Failure 400 {object} api.ResponseError{data=string} "BadRequestCode"
// @Security     ApiKeyAuth
// @Router /admin/pages/{slug}/image [post]
func (c *ContentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequestJSON(w)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestJSON(w)
		return
	}
	defer file.Close()

	url, err := c.contentService.UploadPageImage(r.Context(), slug, header.Filename, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, dto.UploadImageResponse{URL: url}, nil)
}
