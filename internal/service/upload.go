package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	apperrors "github.com/brandcart/storefront/pkg/errors"
)

// MaxLogoSize is the largest brand logo accepted.
const MaxLogoSize = 5 << 20

// LogoInput is one uploaded brand logo.
type LogoInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadService forwards seller uploads to the marketplace API.
type UploadService struct {
	api    UploadAPI
	logger *slog.Logger
}

// NewUploadService creates an upload service.
func NewUploadService(api UploadAPI, logger *slog.Logger) *UploadService {
	return &UploadService{api: api, logger: logger}
}

// UploadBrandLogo validates an image and forwards it with the caller's
// credentials. It returns the hosted logo URL.
func (s *UploadService) UploadBrandLogo(ctx context.Context, in LogoInput) (string, error) {
	mediaType, _, err := mime.ParseMediaType(in.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", apperrors.InvalidInput("Only image files are allowed")
	}
	if in.Size <= 0 {
		return "", apperrors.InvalidInput("file is empty")
	}
	if in.Size > MaxLogoSize {
		return "", apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", in.Size, MaxLogoSize))
	}

	name := logoFileName(in.FileName, mediaType)
	logoURL, err := s.api.UploadBrandLogo(ctx, name, io.LimitReader(in.Data, MaxLogoSize))
	if err != nil {
		return "", fmt.Errorf("upload brand logo: %w", err)
	}

	s.logger.InfoContext(ctx, "brand logo uploaded",
		slog.String("file_name", name),
		slog.Int64("size", in.Size),
	)
	return logoURL, nil
}

// logoFileName strips any directory from name and makes its extension match
// mediaType, so the API sees the right part content type.
func logoFileName(name, mediaType string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "logo"
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext != "" && mime.TypeByExtension(ext) != "" && strings.HasPrefix(mime.TypeByExtension(ext), mediaType) {
		return base
	}
	exts, _ := mime.ExtensionsByType(mediaType)
	if len(exts) == 0 {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + exts[0]
}
