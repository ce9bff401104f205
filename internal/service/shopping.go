package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListSignature closes every rendered shopping list
const ShoppingListSignature = "Foodgram"

// ShoppingItem is one summed ingredient across every recipe in a cart
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingList renders the viewer's cart as plain text
func (s *RecipeService) ShoppingList(ctx context.Context, viewer types.Viewer) (string, error) {
	if !viewer.Authenticated() {
		return "", apperr.ErrAuthRequired
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, viewer.UserID).Error; err != nil {
		return "", lookupError(err, "user")
	}

	var names []string
	err := s.db.WithContext(ctx).Table("recipes").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
		Where("shopping_carts.user_id = ?", viewer.UserID).
		Order("shopping_carts.id ASC").
		Pluck("recipes.name", &names).Error
	if err != nil {
		return "", fmt.Errorf("failed to load cart recipes: %w", err)
	}

	items, err := s.shoppingItems(ctx, viewer.UserID)
	if err != nil {
		return "", err
	}

	s.metrics.IncShoppingDownload()
	return RenderShoppingList(user.Username, names, items, s.now()), nil
}

// shoppingItems groups every cart line by (name, unit) and sums the amounts
func (s *RecipeService) shoppingItems(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return items, nil
}

// RenderShoppingList formats the report. Items are written in the order given.
func RenderShoppingList(username string, recipeNames []string, items []ShoppingItem, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for %s:\n", username)
	fmt.Fprintf(&b, "To cook: %s, you will need:\n", strings.Join(recipeNames, ", "))
	for _, item := range items {
		b.WriteString(item.Name)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(item.Amount, 10))
		b.WriteByte(' ')
		b.WriteString(item.MeasurementUnit)
		b.WriteByte('\n')
	}
	b.WriteString("\n" + ShoppingListSignature + "\n")
	b.WriteString(day.Format("2006-01-02"))
	return b.String()
}
