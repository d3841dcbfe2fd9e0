package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe belongs to exactly one user for its whole life.
type Recipe struct {
	gorm.Model
	UserID        uint            `gorm:"index;not null"`
	Title         string          `gorm:"type:varchar(255);not null"`
	TimeMinutes   int             `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Link          string          `gorm:"type:varchar(600)"`
	Image         string          `gorm:"type:varchar(255)"` // storage path, empty when no image
	ImageBlurHash string          `gorm:"type:varchar(64)"`
	Tags          []Tag           `gorm:"many2many:recipe_tags;"`
	Ingredients   []Ingredient    `gorm:"many2many:recipe_ingredients;"`
}

// TagIDs returns the ids of the loaded tags in load order.
func (r *Recipe) TagIDs() []uint {
	ids := make([]uint, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// IngredientIDs returns the ids of the loaded ingredients in load order.
func (r *Recipe) IngredientIDs() []uint {
	ids := make([]uint, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Token{}, &Tag{}, &Ingredient{}, &Recipe{}}
}
