package repositories

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/query"
)

// RecipeRepository defines the interface for recipe data access.
// Every read is scoped to an owner.
type RecipeRepository interface {
	// List returns matching recipes ordered by id descending, associations loaded.
	List(ctx context.Context, filter query.RecipeFilter) ([]models.Recipe, error)
	GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error)
	// Create inserts the recipe and links recipe.Tags and recipe.Ingredients atomically.
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update saves the scalar columns and, when asked, replaces association sets atomically.
	Update(ctx context.Context, recipe *models.Recipe, replace AssociationSet) error
	// DeleteOwned removes the recipe and returns it as it was before deletion.
	DeleteOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error)
}

// AssociationSet selects which many-to-many sets an update replaces.
type AssociationSet struct {
	Tags        bool
	Ingredients bool
}
