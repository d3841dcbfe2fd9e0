package models

import "gorm.io/gorm"

// Label is the shape shared by tags and ingredients: a name scoped to its owner.
type Label struct {
	gorm.Model
	Name   string `gorm:"type:varchar(255);not null"`
	UserID uint   `gorm:"index;not null"`
}

// Base returns the embedded Label so generic code can reach the common fields.
func (l *Label) Base() *Label { return l }

type Tag struct {
	Label
}

type Ingredient struct {
	Label
}
