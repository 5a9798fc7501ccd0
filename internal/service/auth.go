package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/brandcart/storefront/pkg/middleware"
	"github.com/brandcart/storefront/pkg/validator"
)

// SendOTPInput is the login form.
type SendOTPInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=15"`
}

// VerifyOTPInput is the OTP form.
type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=15"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// Login is a verified marketplace login.
type Login struct {
	Token     string
	TokenType string
	Role      string
	Subject   string
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

// AuthService runs the phone and OTP login against the marketplace API.
type AuthService struct {
	api    AuthAPI
	logger *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(api AuthAPI, logger *slog.Logger) *AuthService {
	return &AuthService{api: api, logger: logger}
}

// SendOTP asks the API to text a one-time password to the phone number.
// Separators are stripped before validation.
func (s *AuthService) SendOTP(ctx context.Context, in SendOTPInput) (string, error) {
	in.Phone = NormalizePhone(in.Phone)
	if err := validator.Validate(in); err != nil {
		return "", err
	}
	if err := s.api.SendOTP(ctx, in.Phone); err != nil {
		return "", fmt.Errorf("send otp: %w", err)
	}
	s.logger.InfoContext(ctx, "otp sent", slog.String("phone", maskPhone(in.Phone)))
	return in.Phone, nil
}

// VerifyOTP exchanges the OTP for an access token. The token's expiry and
// subject are read from its claims.
func (s *AuthService) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*Login, error) {
	in.Phone = NormalizePhone(in.Phone)
	in.OTP = strings.TrimSpace(in.OTP)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	tok, err := s.api.VerifyOTP(ctx, in.Phone, in.OTP)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("verify otp: empty access token")
	}

	login := &Login{Token: tok.AccessToken, TokenType: tok.TokenType, Role: tok.Role}
	if claims, err := middleware.ParseClaims(tok.AccessToken); err == nil {
		login.Subject = claims.Subject
		login.ExpiresAt = claims.ExpiresAt
		if login.Role == "" {
			login.Role = claims.Role
		}
	} else {
		s.logger.WarnContext(ctx, "access token claims unreadable", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "otp verified",
		slog.String("phone", maskPhone(in.Phone)),
		slog.String("role", login.Role),
	)
	return login, nil
}

// NormalizePhone keeps only the digits of phone.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
