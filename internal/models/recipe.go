package models

import (
	"time"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 3200
	MinAmount      = 1
	MaxAmount      = 3200
)

type Recipe struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	AuthorID          uint               `gorm:"not null;index" json:"author_id"`
	Author            User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Name              string             `gorm:"size:200;not null" json:"name"`
	Image             string             `gorm:"size:255;not null" json:"image"`
	Text              string             `gorm:"type:text;not null" json:"text"`
	CookingTime       int                `gorm:"not null;check:cooking_time >= 1 AND cooking_time <= 3200" json:"cooking_time"`
	PubDate           time.Time          `gorm:"not null;index" json:"pub_date"`
	Tags              []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	RecipeIngredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is one ingredient line of a recipe. Lines are ordered by ID.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       int        `gorm:"not null;check:amount >= 1 AND amount <= 3200" json:"amount"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
