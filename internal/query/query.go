// Package query turns list-request parameters into gorm scopes.
//
// Every recipe listing is owner-scoped first; tag and ingredient filters are
// then ANDed together, each one matching any of its ids.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"recipebox/internal/apperrors"

	"gorm.io/gorm"
)

// RecipeFilter selects the recipes of one owner.
// A nil id slice means the filter was not supplied.
type RecipeFilter struct {
	OwnerID       uint
	TagIDs        []uint
	IngredientIDs []uint
}

// ParseIDs parses a comma separated id list such as "1,2,3".
// An empty string yields nil (no filter); any non-integer token fails with a
// validation error on field.
func ParseIDs(field, raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	seen := make(map[uint]struct{}, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err != nil {
			return nil, apperrors.FieldError(field, fmt.Sprintf("%q is not a valid id", part))
		}
		id := uint(n)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// OwnedBy restricts a query on table to rows whose user_id is ownerID.
func OwnedBy(table string, ownerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".user_id = ?", ownerID)
	}
}

// WithAnyTag keeps recipes associated with at least one of ids.
func WithAnyTag(ids []uint) func(*gorm.DB) *gorm.DB {
	return withAnyAssociation("recipe_tags", "tag_id", ids)
}

// WithAnyIngredient keeps recipes associated with at least one of ids.
func WithAnyIngredient(ids []uint) func(*gorm.DB) *gorm.DB {
	return withAnyAssociation("recipe_ingredients", "ingredient_id", ids)
}

func withAnyAssociation(joinTable, column string, ids []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ids == nil {
			return db
		}
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table(joinTable).
			Select("recipe_id").
			Where(column+" IN ?", ids)
		return db.Where("recipes.id IN (?)", sub)
	}
}

// Recipes applies the whole filter.
func Recipes(f RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(
			OwnedBy("recipes", f.OwnerID),
			WithAnyTag(f.TagIDs),
			WithAnyIngredient(f.IngredientIDs),
		)
	}
}
