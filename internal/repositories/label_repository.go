package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"

	"gorm.io/gorm"
)

// LabelPtr is satisfied by *models.Tag and *models.Ingredient.
type LabelPtr[T any] interface {
	*T
	Base() *models.Label
}

// LabelRepository is the owner-scoped collection shared by tags and ingredients.
type LabelRepository[T any] interface {
	// ListByOwner returns the owner's records ordered by name descending.
	ListByOwner(ctx context.Context, ownerID uint) ([]T, error)
	// FindOwned returns the records among ids that belong to ownerID.
	FindOwned(ctx context.Context, ownerID uint, ids []uint) ([]T, error)
	Create(ctx context.Context, item *T) error
	DeleteOwned(ctx context.Context, ownerID, id uint) error
}

// GORMLabelRepository implements LabelRepository once for every label type.
type GORMLabelRepository[T any, PT LabelPtr[T]] struct {
	db   *gorm.DB
	spec LabelSpec
}

// LabelSpec names a label type and the join table linking it to recipes.
type LabelSpec struct {
	Resource   string // used in error messages
	JoinTable  string
	JoinColumn string
}

var (
	TagSpec        = LabelSpec{Resource: "tag", JoinTable: "recipe_tags", JoinColumn: "tag_id"}
	IngredientSpec = LabelSpec{Resource: "ingredient", JoinTable: "recipe_ingredients", JoinColumn: "ingredient_id"}
)

func NewGORMLabelRepository[T any, PT LabelPtr[T]](db *gorm.DB, spec LabelSpec) *GORMLabelRepository[T, PT] {
	return &GORMLabelRepository[T, PT]{db: db, spec: spec}
}

// NewTagRepository returns the label repository for tags.
func NewTagRepository(db *gorm.DB) *GORMLabelRepository[models.Tag, *models.Tag] {
	return NewGORMLabelRepository[models.Tag](db, TagSpec)
}

// NewIngredientRepository returns the label repository for ingredients.
func NewIngredientRepository(db *gorm.DB) *GORMLabelRepository[models.Ingredient, *models.Ingredient] {
	return NewGORMLabelRepository[models.Ingredient](db, IngredientSpec)
}

func (r *GORMLabelRepository[T, PT]) ListByOwner(ctx context.Context, ownerID uint) ([]T, error) {
	items := []T{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("name DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.spec.Resource, err)
	}
	return items, nil
}

func (r *GORMLabelRepository[T, PT]) FindOwned(ctx context.Context, ownerID uint, ids []uint) ([]T, error) {
	items := []T{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", ownerID, ids).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %ss: %w", r.spec.Resource, err)
	}
	return items, nil
}

func (r *GORMLabelRepository[T, PT]) Create(ctx context.Context, item *T) error {
	if PT(item).Base().UserID == 0 {
		return fmt.Errorf("failed to create %s: missing owner", r.spec.Resource)
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", r.spec.Resource, err)
	}
	return nil
}

// DeleteOwned removes the record and its recipe associations.
// A record owned by someone else is reported as not found.
func (r *GORMLabelRepository[T, PT]) DeleteOwned(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item T
		if err := tx.Where("user_id = ?", ownerID).First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(r.spec.Resource)
			}
			return fmt.Errorf("failed to load %s %d: %w", r.spec.Resource, id, err)
		}
		if err := tx.Exec("DELETE FROM "+r.spec.JoinTable+" WHERE "+r.spec.JoinColumn+" = ?", id).Error; err != nil {
			return fmt.Errorf("failed to detach %s %d: %w", r.spec.Resource, id, err)
		}
		if err := tx.Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to delete %s %d: %w", r.spec.Resource, id, err)
		}
		return nil
	})
}
