package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestServer wires the real services over an in-memory database
type TestServer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	Auth    *service.AuthService
	Metrics *metrics.Metrics
}

type serverOption func(*Deps)

func withRecipeLimit(limit int) serverOption {
	return func(d *Deps) {
		d.RecipeLimiter = middleware.NewMemoryLimiter(middleware.RateLimitConfig{Limit: limit, Window: time.Hour})
	}
}

func withPageSize(n int) serverOption {
	return func(d *Deps) { d.PageSize = n }
}

func setupTestServer(t *testing.T, opts ...serverOption) *TestServer {
	t.Helper()
	require.NoError(t, validation.Register())

	db := testhelpers.NewSQLiteDB(t)
	log := logger.NewNop()
	m := metrics.New()
	images, err := storage.NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	follows := service.NewFollowService(db, log, m)
	favorites := service.NewFavoriteService(db, log, m)
	carts := service.NewShoppingCartService(db, log, m)
	recipes := service.NewRecipeService(db, images, favorites, carts, follows, log, m)
	auth := service.NewAuthService(db, "test-secret", time.Hour, log)

	deps := Deps{
		Auth:    auth,
		Users:   service.NewUserService(db, follows, recipes, log),
		Recipes: recipes,
		Catalog: service.NewCatalogService(db, log),
		Logger:  log,
		Metrics: m,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log))
	SetupAPI(router, deps)
	return &TestServer{Router: router, DB: db, Auth: auth, Metrics: m}
}

// Token issues a token for u the same way login does
func (s *TestServer) Token(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := s.Auth.GenerateToken(u)
	require.NoError(t, err)
	return token
}

// PerformRequestWithToken sends body as JSON; an empty token sends an anonymous request
func (s *TestServer) PerformRequestWithToken(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestServer) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}
