package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListFilename = "list.txt"

type RecipeHandler struct {
	recipeService service.IRecipeService
	validator     middleware.TokenValidator
	limiter       middleware.Limiter
	pageSize      int
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewRecipeHandler(
	recipeService service.IRecipeService,
	validator middleware.TokenValidator,
	limiter middleware.Limiter,
	pageSize int,
	log *logger.Logger,
	m *metrics.Metrics,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		validator:     validator,
		limiter:       limiter,
		pageSize:      pageSize,
		logger:        log,
		metrics:       m,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuth(h.validator)
	required := middleware.AuthMiddleware(h.validator)

	create := []gin.HandlerFunc{required}
	if h.limiter != nil {
		create = append(create, middleware.RateLimit(h.limiter, h.logger, h.metrics))
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optional, h.ListRecipes)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", optional, h.GetRecipe)
		recipes.PATCH("/:id/", required, h.UpdateRecipe)
		recipes.PUT("/:id/", required, h.UpdateRecipe)
		recipes.DELETE("/:id/", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", required, h.RemoveFromCart)
	}
}

// ListRecipes supports ?tags= (repeatable slugs), ?author=, ?is_favorited= and ?is_in_shopping_cart=
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := types.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			respondError(c, errInvalidAuthor)
			return
		}
		filter.AuthorID = uint(id)
	}

	req := pageRequest(c, h.pageSize)
	page, err := h.recipeService.List(c.Request.Context(), middleware.ViewerFrom(c), filter, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, req, page)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	req, err := bindRecipe(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.ViewerFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := bindRecipe(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.ViewerFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.recipeService.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.recipeService.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.recipeService.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	text, err := h.recipeService.ShoppingList(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

type addFunc func(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeShort, error)

type removeFunc func(ctx context.Context, viewer types.Viewer, id uint) error

func (h *RecipeHandler) addRelation(c *gin.Context, add addFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	short, err := add(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove removeFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
