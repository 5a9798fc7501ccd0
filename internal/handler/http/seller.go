package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brandcart/storefront/internal/seo"
	"github.com/brandcart/storefront/internal/service"
	apperrors "github.com/brandcart/storefront/pkg/errors"
)

// multipartOverhead is the slack allowed above the file size for the rest of
// the multipart body.
const multipartOverhead = 1 << 20

// LogoUploader forwards a brand logo.
type LogoUploader interface {
	UploadBrandLogo(ctx context.Context, in service.LogoInput) (string, error)
}

// SellerHandler serves the seller tools.
type SellerHandler struct {
	uploads LogoUploader
	render  *Renderer
	logger  *slog.Logger
}

// NewSellerHandler creates the seller handler.
func NewSellerHandler(uploads LogoUploader, render *Renderer, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{uploads: uploads, render: render, logger: logger}
}

type brandLogoPage struct {
	LogoURL string
	Error   string
}

var brandLogoMeta = seo.Meta{Title: "Brand Logo | Brandcart"}

// BrandLogoForm handles GET /seller/brand-logo
func (h *SellerHandler) BrandLogoForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "brand_logo", brandLogoMeta, brandLogoPage{})
}

// UploadBrandLogo handles POST /seller/brand-logo
func (h *SellerHandler) UploadBrandLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxLogoSize+multipartOverhead)
	if err := r.ParseMultipartForm(service.MaxLogoSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Upload failed"
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			msg, status = "File is larger than 5 MB", http.StatusRequestEntityTooLarge
		}
		h.render.HTML(w, r, status, "brand_logo", brandLogoMeta, brandLogoPage{Error: msg})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.render.HTML(w, r, http.StatusBadRequest, "brand_logo", brandLogoMeta, brandLogoPage{Error: "Choose an image to upload"})
		return
	}
	defer file.Close()

	logoURL, err := h.uploads.UploadBrandLogo(r.Context(), service.LogoInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		status, message := describe(err)
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			message = "Upload failed"
		}
		h.render.HTML(w, r, status, "brand_logo", brandLogoMeta, brandLogoPage{Error: message})
		return
	}

	h.render.HTML(w, r, http.StatusOK, "brand_logo", brandLogoMeta, brandLogoPage{LogoURL: logoURL})
}
