package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	mediaRoot string
	metrics   *metrics.Metrics
	images    *storage.LocalStore
	follows   *RelationService[models.Follow]
	favorites *RelationService[models.FavoriteRecipe]
	carts     *RelationService[models.ShoppingCart]
	recipes   *RecipeService
	users     *UserService
	auth      *AuthService
	catalog   *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	log := logger.NewNop()
	m := metrics.New()

	root := t.TempDir()
	images, err := storage.NewLocalStore(root, "/media/")
	require.NoError(t, err)

	f := &fixture{db: db, mediaRoot: root, metrics: m, images: images}
	f.follows = NewFollowService(db, log, m)
	f.favorites = NewFavoriteService(db, log, m)
	f.carts = NewShoppingCartService(db, log, m)
	f.recipes = NewRecipeService(db, images, f.favorites, f.carts, f.follows, log, m)
	f.recipes.now = func() time.Time { return fixedNow }
	f.users = NewUserService(db, f.follows, f.recipes, log)
	f.auth = NewAuthService(db, "test-secret", time.Hour, log)
	f.auth.bcryptCost = bcrypt.MinCost
	f.catalog = NewCatalogService(db, log)
	return f
}

func viewerOf(u *models.User) types.Viewer {
	return types.Viewer{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

func pngURI() string {
	return EncodeDataURI("png", []byte("fake-png-bytes"))
}

// storedImages lists every file written below the media root
func (f *fixture) storedImages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.mediaRoot, filepath.FromSlash(storage.KeyPrefix)))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func recipeRequest(tags []uint, lines ...types.IngredientAmount) *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        "Pancakes",
		Text:        "Whisk, rest, fry.",
		CookingTime: 25,
		Image:       pngURI(),
		Tags:        tags,
		Ingredients: lines,
	}
}
