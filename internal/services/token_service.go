package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"
	"recipebox/internal/repositories"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
)

// tokenLength is the key length in nanoid characters.
const tokenLength = 40

// CredentialVerifier checks an email/password pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
}

// TokenService exchanges credentials for opaque bearer tokens and resolves them back to users.
type TokenService struct {
	accounts CredentialVerifier
	tokens   repositories.TokenRepository
	ttl      time.Duration // 0 means tokens never expire
	now      func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(accounts CredentialVerifier, tokens repositories.TokenRepository, ttl time.Duration) *TokenService {
	return &TokenService{
		accounts: accounts,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
	}
}

// IssueToken verifies the credentials and returns a fresh key for the user.
// The user's previous key stops working.
func (s *TokenService) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.accounts.VerifyCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	key, err := gonanoid.New(tokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := &models.Token{Key: key, UserID: user.ID, CreatedAt: s.now()}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return "", err
	}

	log.Debug().Uint("user_id", user.ID).Msg("token issued")
	return key, nil
}

// Authenticate resolves a presented key to its active user.
func (s *TokenService) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, apperrors.Unauthorized("authentication credentials were not provided")
	}

	token, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid token")
		}
		return nil, err
	}
	if s.ttl > 0 && s.now().Sub(token.CreatedAt) > s.ttl {
		return nil, apperrors.Unauthorized("token expired")
	}
	if token.User.ID == 0 || !token.User.IsActive {
		return nil, apperrors.Unauthorized("user inactive or deleted")
	}
	return &token.User, nil
}
