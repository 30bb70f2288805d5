package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	auth   *service.AuthService
	router *gin.Engine
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLite(t)
	auth := service.NewAuthService(db, "test-secret")
	catalog := service.NewCatalogService(db)
	recipes := service.NewRecipeService(db, service.NewCompositionValidator(catalog, catalog), nil, nil, nil)

	router := gin.New()
	group := router.Group("/api")
	group.Use(middleware.OptionalAuth(auth))
	requireAuth := middleware.RequireAuth(auth)

	api.NewCatalogHandler(catalog, nil).RegisterRoutes(group)
	api.NewRecipeHandler(
		recipes,
		service.NewShoppingListService(db),
		service.NewFavorites(db),
		service.NewShoppingCart(db),
		6,
		nil,
	).RegisterRoutes(group, requireAuth)
	api.NewUserHandler(service.NewUserService(db, nil), 6, nil).RegisterRoutes(group, requireAuth)

	return &testAPI{t: t, db: db, auth: auth, router: router}
}

func (a *testAPI) token(user *models.User) string {
	a.t.Helper()
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorEnvelope struct {
	Error api.APIError `json:"error"`
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
