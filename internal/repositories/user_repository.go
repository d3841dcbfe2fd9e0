package repositories

import (
	"context"

	"recipebox/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// TokenRepository defines the interface for auth token data access.
type TokenRepository interface {
	// Replace stores token as the only token of token.UserID.
	Replace(ctx context.Context, token *models.Token) error
	// GetByKey loads the token together with its user.
	GetByKey(ctx context.Context, key string) (*models.Token, error)
}
