package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/types"
)

func validRecipe() *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry",
		CookingTime: 20,
		Image:       "data:image/png;base64,aGVsbG8=",
		Tags:        []uint{1},
		Ingredients: []types.IngredientAmount{{ID: 1, Amount: 200}},
	}
}

func TestCookingTimeBoundaries(t *testing.T) {
	cases := []struct {
		minutes int
		ok      bool
	}{
		{0, false},
		{1, true},
		{3200, true},
		{3201, false},
		{5000, false},
	}
	for _, tc := range cases {
		err := ValidateCookingTime(tc.minutes)
		if tc.ok {
			assert.NoError(t, err, "cooking time %d", tc.minutes)
		} else {
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "cooking time %d", tc.minutes)
		}
	}
}

func TestAmountBoundaries(t *testing.T) {
	assert.Error(t, ValidateAmount(0))
	assert.NoError(t, ValidateAmount(1))
	assert.NoError(t, ValidateAmount(3200))
	assert.Error(t, ValidateAmount(3201))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("chef.john+1@home-2"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("semi;colon"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", UsernameMaxLength+1)))
	assert.NoError(t, ValidateUsername(strings.Repeat("a", UsernameMaxLength)))
	assert.Error(t, ValidateUsername("me"))
}

func TestValidateRecipe(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateRecipe(validRecipe(), true))
	})

	t.Run("duplicate tags are collapsed", func(t *testing.T) {
		req := validRecipe()
		req.Tags = []uint{2, 1, 2}
		require.NoError(t, ValidateRecipe(req, true))
		assert.Equal(t, []uint{2, 1}, req.Tags)
	})

	t.Run("duplicate ingredients are rejected", func(t *testing.T) {
		req := validRecipe()
		req.Ingredients = append(req.Ingredients, types.IngredientAmount{ID: 1, Amount: 5})
		err := ValidateRecipe(req, true)
		require.Error(t, err)
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "ingredients")
	})

	t.Run("empty collections", func(t *testing.T) {
		req := validRecipe()
		req.Tags = nil
		req.Ingredients = nil
		err := ValidateRecipe(req, true)
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "tags")
		assert.Contains(t, appErr.Fields, "ingredients")
	})

	t.Run("image optional on update", func(t *testing.T) {
		req := validRecipe()
		req.Image = ""
		assert.Error(t, ValidateRecipe(req, true))
		assert.NoError(t, ValidateRecipe(req, false))
	})

	t.Run("amount out of range", func(t *testing.T) {
		req := validRecipe()
		req.Ingredients[0].Amount = 0
		assert.Error(t, ValidateRecipe(req, true))
	})
}

func TestFromBindingReportsFields(t *testing.T) {
	require.NoError(t, Register())

	req := types.RegisterRequest{Email: "not-an-email", Username: "bad name", FirstName: "A", LastName: "B", Password: "longenough"}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	converted := FromBinding(err)
	var appErr *apperr.Error
	require.ErrorAs(t, converted, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "username")
}
