package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	SetPassword(ctx context.Context, userID uint, current, next string) error
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for profile and subscription operations
type IUserService interface {
	List(ctx context.Context, viewer types.Viewer, page types.PageRequest) (*types.Page[types.UserResponse], error)
	Get(ctx context.Context, viewer types.Viewer, id uint) (*types.UserResponse, error)
	Subscriptions(ctx context.Context, viewer types.Viewer, page types.PageRequest, recipesLimit int) (*types.Page[types.SubscriptionResponse], error)
	Subscribe(ctx context.Context, viewer types.Viewer, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, viewer types.Viewer, authorID uint) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, viewer types.Viewer, req *types.RecipeRequest) (*types.RecipeResponse, error)
	Update(ctx context.Context, viewer types.Viewer, id uint, req *types.RecipeRequest) (*types.RecipeResponse, error)
	Delete(ctx context.Context, viewer types.Viewer, id uint) error
	Get(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeResponse, error)
	List(ctx context.Context, viewer types.Viewer, filter types.RecipeFilter, page types.PageRequest) (*types.Page[types.RecipeResponse], error)
	AddFavorite(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeShort, error)
	RemoveFavorite(ctx context.Context, viewer types.Viewer, id uint) error
	AddToCart(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeShort, error)
	RemoveFromCart(ctx context.Context, viewer types.Viewer, id uint) error
	ShoppingList(ctx context.Context, viewer types.Viewer) (string, error)
}

// ICatalogService defines the interface for tag and ingredient operations
type ICatalogService interface {
	ListTags(ctx context.Context) ([]types.TagResponse, error)
	GetTag(ctx context.Context, id uint) (*types.TagResponse, error)
	CreateTag(ctx context.Context, viewer types.Viewer, req *types.CreateTagRequest) (*types.TagResponse, error)
	SearchIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error)
	CreateIngredient(ctx context.Context, viewer types.Viewer, req *types.CreateIngredientRequest) (*types.IngredientResponse, error)
}

var (
	_ IAuthService    = (*AuthService)(nil)
	_ IUserService    = (*UserService)(nil)
	_ IRecipeService  = (*RecipeService)(nil)
	_ ICatalogService = (*CatalogService)(nil)
)
