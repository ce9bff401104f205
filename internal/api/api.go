package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

const (
	defaultPageSize     = 6
	maxPageSize         = 100
	defaultRecipesLimit = 3
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	Auth          service.IAuthService
	Users         service.IUserService
	Recipes       service.IRecipeService
	Catalog       service.ICatalogService
	RecipeLimiter middleware.Limiter
	PageSize      int
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
}

// SetupAPI registers every /api route on router
func SetupAPI(router *gin.Engine, deps Deps) {
	if deps.PageSize <= 0 {
		deps.PageSize = defaultPageSize
	}
	api := router.Group("/api")

	NewAuthHandler(deps.Auth).RegisterRoutes(api)
	NewUserHandler(deps.Auth, deps.Users, deps.PageSize).RegisterRoutes(api)
	NewCatalogHandler(deps.Catalog, deps.Auth).RegisterRoutes(api)
	NewRecipeHandler(deps.Recipes, deps.Auth, deps.RecipeLimiter, deps.PageSize, deps.Logger, deps.Metrics).RegisterRoutes(api)
	if deps.RecipeLimiter != nil {
		RegisterRateLimitRoutes(api, deps.Auth, deps.RecipeLimiter)
	}
}
