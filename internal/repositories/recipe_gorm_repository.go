package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"
	"recipebox/internal/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{
		db: db,
	}
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (r *GORMRecipeRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", orderByID).
		Preload("Ingredients", orderByID)
}

// List retrieves the owner's recipes matching the filter.
func (r *GORMRecipeRepository) List(ctx context.Context, filter query.RecipeFilter) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := r.withAssociations(ctx).
		Scopes(query.Recipes(filter)).
		Order("recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetOwned retrieves a recipe only when ownerID owns it.
func (r *GORMRecipeRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	return r.getOwned(r.withAssociations(ctx), ownerID, id)
}

func (r *GORMRecipeRepository) getOwned(db *gorm.DB, ownerID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.Scopes(query.OwnedBy("recipes", ownerID)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recipe")
		}
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// Create creates a new recipe with its associations.
func (r *GORMRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return replaceAssociations(tx, recipe, AssociationSet{Tags: true, Ingredients: true})
	})
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update writes every column of an existing recipe. A recipe deleted in the
// meantime is NotFound; Save would upsert it back.
func (r *GORMRecipeRepository) Update(ctx context.Context, recipe *models.Recipe, replace AssociationSet) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(recipe).Omit(clause.Associations).Select("*").Updates(recipe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("recipe")
		}
		return replaceAssociations(tx, recipe, replace)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update recipe %d: %w", recipe.ID, err)
	}
	return nil
}

// DeleteOwned deletes a recipe and its association rows.
func (r *GORMRecipeRepository) DeleteOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	var deleted *models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := r.getOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return err
		}
		deleted = recipe
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	return deleted, nil
}

func replaceAssociations(tx *gorm.DB, recipe *models.Recipe, replace AssociationSet) error {
	if replace.Tags {
		assoc := tx.Model(recipe).Association("Tags")
		if err := replaceOrClear(assoc, recipe.Tags, len(recipe.Tags)); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
	}
	if replace.Ingredients {
		assoc := tx.Model(recipe).Association("Ingredients")
		if err := replaceOrClear(assoc, recipe.Ingredients, len(recipe.Ingredients)); err != nil {
			return fmt.Errorf("ingredients: %w", err)
		}
	}
	return nil
}

func replaceOrClear(assoc *gorm.Association, values any, n int) error {
	if n == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}
