package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"recipebox/internal/apperrors"
	"recipebox/internal/repositories"

	"github.com/rs/zerolog/log"
)

const maxLabelName = 255

// LabelService manages an owner-scoped collection of named labels (tags or ingredients).
type LabelService[T any, PT repositories.LabelPtr[T]] struct {
	repo     repositories.LabelRepository[T]
	resource string
}

// NewLabelService creates a LabelService; resource names the label in logs.
func NewLabelService[T any, PT repositories.LabelPtr[T]](repo repositories.LabelRepository[T], resource string) *LabelService[T, PT] {
	return &LabelService[T, PT]{repo: repo, resource: resource}
}

// List returns the caller's labels, name descending.
func (s *LabelService[T, PT]) List(ctx context.Context, ownerID uint) ([]T, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Create stores a label owned by ownerID.
func (s *LabelService[T, PT]) Create(ctx context.Context, ownerID uint, name string) (*T, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.FieldError("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxLabelName {
		return nil, apperrors.FieldError("name", "must not exceed 255 characters")
	}

	item := new(T)
	base := PT(item).Base()
	base.Name = name
	base.UserID = ownerID
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	log.Debug().Str("resource", s.resource).Uint("id", base.ID).Uint("user_id", ownerID).Msg("label created")
	return item, nil
}

// Delete removes one of the caller's labels.
func (s *LabelService[T, PT]) Delete(ctx context.Context, ownerID, id uint) error {
	return s.repo.DeleteOwned(ctx, ownerID, id)
}
