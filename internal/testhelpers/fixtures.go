package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

const DefaultPassword = "s3cret-Pass"

// CreateUser inserts a user whose password is DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, username)
	if err := db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote %s: %v", username, err)
	}
	user.Role = models.RoleAdmin
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: "#E26C2D", Slug: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// IngredientAmount is one line for CreateRecipe
type IngredientAmount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe directly, bypassing service validation.
// Recipes created later get a later pub_date.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, lines ...IngredientAmount) *models.Recipe {
	t.Helper()
	var count int64
	db.Model(&models.Recipe{}).Count(&count)

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       fmt.Sprintf("recipes/images/%s.png", name),
		Text:        "Cook " + name,
		CookingTime: 10,
		PubDate:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(count) * time.Minute),
	}
	if err := db.Omit("Tags", "RecipeIngredients", "Author").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	if len(tags) > 0 {
		linked := make([]models.Tag, 0, len(tags))
		for _, tag := range tags {
			linked = append(linked, *tag)
		}
		if err := db.Model(recipe).Association("Tags").Append(linked); err != nil {
			t.Fatalf("failed to tag recipe %s: %v", name, err)
		}
	}
	for _, line := range lines {
		ri := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: line.Ingredient.ID, Amount: line.Amount}
		if err := db.Omit("Ingredient").Create(ri).Error; err != nil {
			t.Fatalf("failed to add ingredient to %s: %v", name, err)
		}
	}
	return recipe
}
