package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"

	"gorm.io/gorm"
)

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{db: db}
}

// Replace deletes any token the user holds and inserts the new one in a single transaction.
func (r *GORMTokenRepository) Replace(ctx context.Context, token *models.Token) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", token.UserID).Delete(&models.Token{}).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(token).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (r *GORMTokenRepository) GetByKey(ctx context.Context, key string) (*models.Token, error) {
	var token models.Token
	if err := r.db.WithContext(ctx).Preload("User").Where(&models.Token{Key: key}).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("token")
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}
