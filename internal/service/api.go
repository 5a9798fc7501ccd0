package service

import (
	"context"
	"io"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/domain"
)

// CatalogAPI is the read side of the marketplace API.
type CatalogAPI interface {
	ListProducts(ctx context.Context, search string) ([]domain.Product, error)
	AllProducts(ctx context.Context, limit int) ([]domain.Product, error)
	SearchProducts(ctx context.Context, q apiclient.SearchQuery) ([]domain.Product, error)
	Section(ctx context.Context, s apiclient.Section, limit int) ([]domain.Product, error)
	Product(ctx context.Context, id domain.ProductID) (domain.Product, error)
	ProductReviews(ctx context.Context, id domain.ProductID) (domain.ReviewPayload, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Banners(ctx context.Context) ([]domain.Banner, error)
	TopBrands(ctx context.Context) ([]domain.Brand, error)
}

// AuthAPI is the OTP login side of the marketplace API.
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (apiclient.Token, error)
}

// UploadAPI forwards seller uploads.
type UploadAPI interface {
	UploadBrandLogo(ctx context.Context, filename string, r io.Reader) (string, error)
}
