package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/launchlist/waitlist-service/internal/auth"
	"github.com/launchlist/waitlist-service/internal/config"
	"github.com/launchlist/waitlist-service/internal/domain"
)

// ErrInvalidCredentials is returned for any failed admin login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates admin login.
type AuthService struct {
	adminEmail string
	adminHash  string
	tokenMgr   *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		adminEmail: NormalizeEmail(cfg.AdminEmail),
		adminHash:  cfg.AdminPasswordHash,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
	}
}

// LoginAdmin checks the configured admin credentials and issues a token.
// With no admin configured every login fails.
func (s *AuthService) LoginAdmin(_ context.Context, email, password string) (*domain.AdminSession, error) {
	if s.adminEmail == "" || s.adminHash == "" {
		return nil, ErrInvalidCredentials
	}
	if NormalizeEmail(email) != s.adminEmail {
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(s.adminHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.tokenMgr.GenerateToken(s.adminEmail, domain.SubjectTypeAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue admin token: %w", err)
	}
	return &domain.AdminSession{Email: s.adminEmail, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
