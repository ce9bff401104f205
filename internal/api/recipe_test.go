package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeFixture struct {
	*TestServer
	chef      *models.User
	chefToken string
	breakfast *models.Tag
	flour     *models.Ingredient
	milk      *models.Ingredient
}

func setupRecipeFixture(t *testing.T, opts ...serverOption) *recipeFixture {
	s := setupTestServer(t, opts...)
	chef := testhelpers.CreateUser(t, s.DB, "chef")
	return &recipeFixture{
		TestServer: s,
		chef:       chef,
		chefToken:  s.Token(t, chef),
		breakfast:  testhelpers.CreateTag(t, s.DB, "breakfast"),
		flour:      testhelpers.CreateIngredient(t, s.DB, "flour", "g"),
		milk:       testhelpers.CreateIngredient(t, s.DB, "milk", "ml"),
	}
}

func (f *recipeFixture) payload(cookingTime int) map[string]interface{} {
	return map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Whisk, rest, fry.",
		"cooking_time": cookingTime,
		"image":        service.EncodeDataURI("png", []byte("png-bytes")),
		"tags":         []uint{f.breakfast.ID},
		"ingredients": []map[string]interface{}{
			{"id": f.flour.ID, "amount": 200},
			{"id": f.milk.ID, "amount": 300},
		},
	}
}

func TestCreateRecipeJSON(t *testing.T) {
	f := setupRecipeFixture(t)

	w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", f.payload(25), f.chefToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe types.RecipeResponse
	decode(t, w, &recipe)
	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, "chef", recipe.Author.Username)
	assert.True(t, strings.HasPrefix(recipe.Image, "/media/recipes/images/"), recipe.Image)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "flour", recipe.Ingredients[0].Name)
	assert.Equal(t, 200, recipe.Ingredients[0].Amount)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := setupRecipeFixture(t)

	for _, minutes := range []int{0, 3201} {
		w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", f.payload(minutes), f.chefToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "cooking_time")
	}

	body := f.payload(10)
	body["image"] = "https://example.com/pancakes.png"
	w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", body, f.chefToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = f.payload(10)
	body["ingredients"] = []map[string]interface{}{{"id": 999, "amount": 1}}
	w = f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", body, f.chefToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", f.payload(10), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeMultipart(t *testing.T) {
	f := setupRecipeFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Porridge"))
	require.NoError(t, mw.WriteField("text", "Simmer oats in milk."))
	require.NoError(t, mw.WriteField("cooking_time", "15"))
	require.NoError(t, mw.WriteField("tags", itoa(f.breakfast.ID)))
	lines, err := json.Marshal([]types.IngredientAmount{{ID: f.milk.ID, Amount: 250}})
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("ingredients", string(lines)))
	part, err := mw.CreateFormFile("image", "porridge.JPG")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.chefToken)
	w := f.Do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe types.RecipeResponse
	decode(t, w, &recipe)
	assert.Equal(t, "Porridge", recipe.Name)
	assert.True(t, strings.HasSuffix(recipe.Image, ".jpg"), recipe.Image)
	require.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, 250, recipe.Ingredients[0].Amount)
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe := testhelpers.CreateRecipe(t, f.DB, f.chef, "soup", []*models.Tag{f.breakfast},
		testhelpers.IngredientAmount{Ingredient: f.flour, Amount: 50})
	path := "/api/recipes/" + itoa(recipe.ID) + "/"

	update := f.payload(40)
	delete(update, "image")
	update["ingredients"] = []map[string]interface{}{{"id": f.milk.ID, "amount": 700}}

	stranger := testhelpers.CreateUser(t, f.DB, "stranger")
	w := f.PerformRequestWithToken(http.MethodPatch, path, update, f.Token(t, stranger))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.PerformRequestWithToken(http.MethodPatch, path, update, f.chefToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated types.RecipeResponse
	decode(t, w, &updated)
	assert.Equal(t, 40, updated.CookingTime)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "milk", updated.Ingredients[0].Name)
	assert.Equal(t, "/media/"+recipe.Image, updated.Image)

	w = f.PerformRequestWithToken(http.MethodDelete, path, nil, f.chefToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.PerformRequestWithToken(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipesFilters(t *testing.T) {
	f := setupRecipeFixture(t)
	dinner := testhelpers.CreateTag(t, f.DB, "dinner")
	other := testhelpers.CreateUser(t, f.DB, "other")
	eggs := testhelpers.CreateRecipe(t, f.DB, f.chef, "eggs", []*models.Tag{f.breakfast})
	testhelpers.CreateRecipe(t, f.DB, f.chef, "steak", []*models.Tag{dinner})
	testhelpers.CreateRecipe(t, f.DB, other, "toast", []*models.Tag{f.breakfast})

	list := func(query, token string) types.Page[types.RecipeResponse] {
		t.Helper()
		w := f.PerformRequestWithToken(http.MethodGet, "/api/recipes/"+query, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page types.Page[types.RecipeResponse]
		decode(t, w, &page)
		return page
	}
	names := func(page types.Page[types.RecipeResponse]) []string {
		out := make([]string, 0, len(page.Results))
		for _, r := range page.Results {
			out = append(out, r.Name)
		}
		return out
	}

	assert.Equal(t, []string{"toast", "steak", "eggs"}, names(list("", "")))
	assert.Equal(t, []string{"toast", "eggs"}, names(list("?tags=breakfast", "")))
	assert.Equal(t, []string{"toast", "steak", "eggs"}, names(list("?tags=breakfast&tags=dinner", "")))
	assert.Equal(t, []string{"steak", "eggs"}, names(list("?author="+itoa(f.chef.ID), "")))

	w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/"+itoa(eggs.ID)+"/favorite/", nil, f.chefToken)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, []string{"eggs"}, names(list("?is_favorited=1", f.chefToken)))
	assert.Empty(t, names(list("?is_favorited=1", "")))
	assert.Empty(t, names(list("?is_in_shopping_cart=true", f.chefToken)))

	page := list("?limit=2", f.chefToken)
	assert.EqualValues(t, 3, page.Count)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")

	w = f.PerformRequestWithToken(http.MethodGet, "/api/recipes/?author=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoriteAndCartToggles(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe := testhelpers.CreateRecipe(t, f.DB, f.chef, "soup", nil)

	for _, rel := range []string{"favorite", "shopping_cart"} {
		path := "/api/recipes/" + itoa(recipe.ID) + "/" + rel + "/"

		w := f.PerformRequestWithToken(http.MethodPost, path, nil, f.chefToken)
		require.Equal(t, http.StatusCreated, w.Code, rel)
		var short types.RecipeShort
		decode(t, w, &short)
		assert.Equal(t, types.RecipeShort{ID: recipe.ID, Name: "soup", Image: "/media/" + recipe.Image, CookingTime: 10}, short)

		w = f.PerformRequestWithToken(http.MethodPost, path, nil, f.chefToken)
		assert.Equal(t, http.StatusBadRequest, w.Code, rel)

		w = f.PerformRequestWithToken(http.MethodDelete, path, nil, f.chefToken)
		assert.Equal(t, http.StatusNoContent, w.Code, rel)

		w = f.PerformRequestWithToken(http.MethodDelete, path, nil, f.chefToken)
		assert.Equal(t, http.StatusBadRequest, w.Code, rel)

		w = f.PerformRequestWithToken(http.MethodPost, "/api/recipes/999/"+rel+"/", nil, f.chefToken)
		assert.Equal(t, http.StatusNotFound, w.Code, rel)
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	f := setupRecipeFixture(t)
	bread := testhelpers.CreateRecipe(t, f.DB, f.chef, "bread", nil,
		testhelpers.IngredientAmount{Ingredient: f.flour, Amount: 200})
	cake := testhelpers.CreateRecipe(t, f.DB, f.chef, "cake", nil,
		testhelpers.IngredientAmount{Ingredient: f.flour, Amount: 300},
		testhelpers.IngredientAmount{Ingredient: f.milk, Amount: 100})
	for _, r := range []*models.Recipe{bread, cake} {
		w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/"+itoa(r.ID)+"/shopping_cart/", nil, f.chefToken)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, f.chefToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="list.txt"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Body.String(), "To cook: bread, cake")
	assert.Contains(t, w.Body.String(), "\nflour 500 g\n")
	assert.Contains(t, w.Body.String(), "\nmilk 100 ml\n")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.Metrics.ShoppingDownload))

	w = f.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecipeCreationRateLimit(t *testing.T) {
	f := setupRecipeFixture(t, withRecipeLimit(1))

	w := f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", f.payload(10), f.chefToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.PerformRequestWithToken(http.MethodPost, "/api/recipes/", f.payload(10), f.chefToken)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = f.PerformRequestWithToken(http.MethodGet, "/api/rate-limits/recipe-creation/", nil, f.chefToken)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Limit     int    `json:"limit"`
		Remaining int    `json:"remaining"`
		Window    string `json:"window"`
	}
	decode(t, w, &status)
	assert.Equal(t, 1, status.Limit)
	assert.Equal(t, 0, status.Remaining)
	assert.Equal(t, time.Hour.String(), status.Window)
}

func TestRecipePageSize(t *testing.T) {
	f := setupRecipeFixture(t, withPageSize(1))
	testhelpers.CreateRecipe(t, f.DB, f.chef, "a", nil)
	testhelpers.CreateRecipe(t, f.DB, f.chef, "b", nil)

	w := f.PerformRequestWithToken(http.MethodGet, "/api/recipes/", nil, "")
	var page types.Page[types.RecipeResponse]
	decode(t, w, &page)
	assert.Len(t, page.Results, 1)
	assert.EqualValues(t, 2, page.Count)
}
