package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func setupCatalogRouter(t *testing.T) (*gin.Engine, *mocks.MockCatalogService, *mocks.MockAuthService) {
	t.Helper()
	require.NoError(t, validation.Register())
	catalog := new(mocks.MockCatalogService)
	tokens := new(mocks.MockAuthService)
	tokens.On("ValidateToken", "admin").Return(&types.TokenClaims{UserID: 1, Role: models.RoleAdmin}, nil)
	tokens.On("ValidateToken", "user").Return(&types.TokenClaims{UserID: 2, Role: models.RoleUser}, nil)

	router := gin.New()
	NewCatalogHandler(catalog, tokens).RegisterRoutes(router.Group("/api"))
	t.Cleanup(func() { catalog.AssertExpectations(t) })
	return router, catalog, tokens
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListTagsUnpaginated(t *testing.T) {
	router, catalog, _ := setupCatalogRouter(t)
	catalog.On("ListTags", mock.Anything).Return([]types.TagResponse{
		{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
	}, nil)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/tags/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Breakfast","color":"#E26C2D","slug":"breakfast"}]`, w.Body.String())
}

func TestSearchIngredientsPassesName(t *testing.T) {
	router, catalog, _ := setupCatalogRouter(t)
	catalog.On("SearchIngredients", mock.Anything, "flo").Return([]types.IngredientResponse{
		{ID: 3, Name: "flour", MeasurementUnit: "g"},
	}, nil)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/ingredients/?name=flo", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":3,"name":"flour","measurement_unit":"g"}]`, w.Body.String())
}

func TestGetTagNotFound(t *testing.T) {
	router, catalog, _ := setupCatalogRouter(t)
	catalog.On("GetTag", mock.Anything, uint(42)).Return(nil, apperr.NotFound("tag not found"))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/tags/42/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/tags/abc/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTagPassesViewer(t *testing.T) {
	router, catalog, _ := setupCatalogRouter(t)
	admin := types.Viewer{UserID: 1, IsAdmin: true}
	user := types.Viewer{UserID: 2}
	catalog.On("CreateTag", mock.Anything, admin, mock.AnythingOfType("*types.CreateTagRequest")).
		Return(&types.TagResponse{ID: 9, Name: "Lunch", Color: "#49B64E", Slug: "lunch"}, nil)
	catalog.On("CreateTag", mock.Anything, user, mock.Anything).Return(nil, apperr.ErrAdminOnly)

	body := `{"name":"Lunch","color":"#49B64E","slug":"lunch"}`
	newReq := func(token, body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/tags/", stringsReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
		return req
	}

	w := serve(router, newReq("admin", body))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(router, newReq("user", body))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(router, newReq("", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// rejected before reaching the service
	w = serve(router, newReq("admin", `{"name":"Lunch","color":"green","slug":"not a slug"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "slug")
	assert.Contains(t, w.Body.String(), "color")
}

func TestIngredientEndpointsAgainstDatabase(t *testing.T) {
	s := setupTestServer(t)
	admin := testhelpers.CreateAdmin(t, s.DB, "admin")
	testhelpers.CreateIngredient(t, s.DB, "Flour", "g")

	w := s.PerformRequestWithToken(http.MethodGet, "/api/ingredients/?name=FLO", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var found []types.IngredientResponse
	decode(t, w, &found)
	require.Len(t, found, 1)

	w = s.PerformRequestWithToken(http.MethodPost, "/api/ingredients/",
		map[string]string{"name": "Flour", "measurement_unit": "g"}, s.Token(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.PerformRequestWithToken(http.MethodPost, "/api/ingredients/",
		map[string]string{"name": "Sugar", "measurement_unit": "g"}, s.Token(t, admin))
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.IngredientResponse
	decode(t, w, &created)

	w = s.PerformRequestWithToken(http.MethodGet, "/api/ingredients/"+itoa(created.ID)+"/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
