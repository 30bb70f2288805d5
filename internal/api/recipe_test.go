package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recipeCatalog struct {
	breakfast *models.Tag
	salt      *models.Ingredient
	flour     *models.Ingredient
}

func seedCatalog(t *testing.T, a *testAPI) recipeCatalog {
	return recipeCatalog{
		breakfast: testhelpers.CreateTag(t, a.db, "Breakfast", "breakfast"),
		salt:      testhelpers.CreateIngredient(t, a.db, "salt", "g"),
		flour:     testhelpers.CreateIngredient(t, a.db, "flour", "g"),
	}
}

func (rc recipeCatalog) payload(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 25,
		"image":        "https://images.example.com/" + name + ".png",
		"tags":         []uuid.UUID{rc.breakfast.ID},
		"ingredients": []map[string]any{
			{"id": rc.flour.ID, "amount": 200},
			{"id": rc.salt.ID, "amount": 5},
		},
	}
}

func TestCreateRecipeEndpoint(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")

	w := a.do(http.MethodPost, "/api/recipes", a.token(chef), rc.payload("bread"))
	requireStatus(t, w, http.StatusCreated)

	view := decode[types.RecipeView](t, w)
	assert.Equal(t, "bread", view.Name)
	assert.Equal(t, chef.ID, view.Author.ID)
	require.Len(t, view.Ingredients, 2)
	assert.Equal(t, "flour", view.Ingredients[0].Name)
	assert.Equal(t, 200, view.Ingredients[0].Amount)

	w = a.do(http.MethodGet, "/api/recipes/"+view.ID.String(), "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, view.ID, decode[types.RecipeView](t, w).ID)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)

	w := a.do(http.MethodPost, "/api/recipes", "", rc.payload("bread"))
	requireStatus(t, w, http.StatusUnauthorized)

	w = a.do(http.MethodPost, "/api/recipes", "not-a-jwt", rc.payload("bread"))
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestCreateRecipeValidationErrors(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	token := a.token(testhelpers.CreateUser(t, a.db, "chef"))
	ghost := uuid.New()

	body := rc.payload("bread")
	body["ingredients"] = []map[string]any{
		{"id": rc.flour.ID, "amount": 200},
		{"id": ghost, "amount": 5},
	}
	w := a.do(http.MethodPost, "/api/recipes", token, body)
	requireStatus(t, w, http.StatusBadRequest)
	apiErr := decode[errorEnvelope](t, w).Error
	assert.Equal(t, "unknown_ingredients", apiErr.Code)
	assert.Equal(t, "ingredients", apiErr.Field)
	assert.Equal(t, []uuid.UUID{ghost}, apiErr.MissingIDs)

	body = rc.payload("bread")
	body["tags"] = []uuid.UUID{}
	w = a.do(http.MethodPost, "/api/recipes", token, body)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "empty_tags", decode[errorEnvelope](t, w).Error.Code)

	body = rc.payload("bread")
	body["ingredients"] = []map[string]any{{"amount": 5}}
	w = a.do(http.MethodPost, "/api/recipes", token, body)
	requireStatus(t, w, http.StatusBadRequest)
	apiErr = decode[errorEnvelope](t, w).Error
	assert.Equal(t, "invalid_payload", apiErr.Code)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "required", apiErr.Fields[0].Rule)

	var count int64
	require.NoError(t, a.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeRejectsOversizedBody(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")

	body := rc.payload("bread")
	body["image"] = "data:image/png;base64," + strings.Repeat("A", api.MaxBodyBytes)
	w := a.do(http.MethodPost, "/api/recipes", a.token(chef), body)
	requireStatus(t, w, http.StatusRequestEntityTooLarge)
	assert.Equal(t, "payload_too_large", decode[errorEnvelope](t, w).Error.Code)
}

func TestCreateRecipeNamesOutOfRangeLine(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")

	body := rc.payload("bread")
	body["ingredients"] = []map[string]any{
		{"id": rc.flour.ID, "amount": 200},
		{"id": rc.salt.ID, "amount": 5000},
	}
	w := a.do(http.MethodPost, "/api/recipes", a.token(chef), body)
	requireStatus(t, w, http.StatusBadRequest)
	apiErr := decode[errorEnvelope](t, w).Error
	assert.Equal(t, "out_of_range", apiErr.Code)
	assert.Equal(t, "ingredients[1].amount", apiErr.Field)
}

func TestCreateRecipeLogsOnce(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	catalog := service.NewCatalogService(a.db)
	recipes := service.NewRecipeService(a.db, service.NewCompositionValidator(catalog, catalog), nil, nil, logger)
	router := gin.New()
	group := router.Group("/api")
	group.Use(middleware.OptionalAuth(a.auth))
	api.NewRecipeHandler(recipes, service.NewShoppingListService(a.db),
		service.NewFavorites(a.db), service.NewShoppingCart(a.db), 6, logger).
		RegisterRoutes(group, middleware.RequireAuth(a.auth))
	a.router = router

	w := a.do(http.MethodPost, "/api/recipes", a.token(chef), rc.payload("bread"))
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, 1, logs.FilterMessage("recipe created").Len())
}

func TestUpdateAndDeleteRecipeEndpoints(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")
	guest := testhelpers.CreateUser(t, a.db, "guest")
	recipe := testhelpers.CreateRecipe(t, a.db, chef, "soup", []*models.Tag{rc.breakfast},
		testhelpers.Line{Ingredient: rc.salt, Amount: 5})
	path := "/api/recipes/" + recipe.ID.String()

	w := a.do(http.MethodPatch, path, a.token(guest), map[string]any{"name": "stolen"})
	requireStatus(t, w, http.StatusForbidden)

	w = a.do(http.MethodPatch, path, a.token(chef), map[string]any{
		"name":        "better soup",
		"ingredients": []map[string]any{{"id": rc.flour.ID, "amount": 50}},
	})
	requireStatus(t, w, http.StatusOK)
	view := decode[types.RecipeView](t, w)
	assert.Equal(t, "better soup", view.Name)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, rc.flour.ID, view.Ingredients[0].ID)
	require.Len(t, view.Tags, 1, "omitted tags stay untouched")

	w = a.do(http.MethodDelete, path, a.token(guest), nil)
	requireStatus(t, w, http.StatusForbidden)

	w = a.do(http.MethodDelete, path, a.token(chef), nil)
	requireStatus(t, w, http.StatusNoContent)

	w = a.do(http.MethodGet, path, "", nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "not_found", decode[errorEnvelope](t, w).Error.Code)
}

func TestGetRecipeWithMalformedID(t *testing.T) {
	a := setupAPI(t)
	w := a.do(http.MethodGet, "/api/recipes/not-a-uuid", "", nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestFavoriteEndpoints(t *testing.T) {
	a := setupAPI(t)
	chef := testhelpers.CreateUser(t, a.db, "chef")
	fan := testhelpers.CreateUser(t, a.db, "fan")
	recipe := testhelpers.CreateRecipe(t, a.db, chef, "pie", nil)
	path := "/api/recipes/" + recipe.ID.String() + "/favorite"
	token := a.token(fan)

	w := a.do(http.MethodPost, path, token, nil)
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, types.NewBriefRecipe(recipe), decode[types.BriefRecipe](t, w))

	w = a.do(http.MethodPost, path, token, nil)
	requireStatus(t, w, http.StatusConflict)

	w = a.do(http.MethodGet, "/api/recipes/"+recipe.ID.String(), token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[types.RecipeView](t, w).IsFavorited)

	w = a.do(http.MethodDelete, path, token, nil)
	requireStatus(t, w, http.StatusNoContent)
	w = a.do(http.MethodDelete, path, token, nil)
	requireStatus(t, w, http.StatusNotFound)

	w = a.do(http.MethodPost, "/api/recipes/"+uuid.NewString()+"/favorite", token, nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestDownloadShoppingCart(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	chef := testhelpers.CreateUser(t, a.db, "chef")
	soup := testhelpers.CreateRecipe(t, a.db, chef, "soup", nil, testhelpers.Line{Ingredient: rc.salt, Amount: 5})
	bread := testhelpers.CreateRecipe(t, a.db, chef, "bread", nil,
		testhelpers.Line{Ingredient: rc.flour, Amount: 300},
		testhelpers.Line{Ingredient: rc.salt, Amount: 3})
	token := a.token(chef)

	for _, r := range []*models.Recipe{soup, bread} {
		w := a.do(http.MethodPost, "/api/recipes/"+r.ID.String()+"/shopping_cart", token, nil)
		requireStatus(t, w, http.StatusCreated)
	}

	w := a.do(http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="`+api.ShoppingListFilename+`"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "flour: 300 g\nsalt: 8 g\n", w.Body.String())

	w = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestListRecipesEndpoint(t *testing.T) {
	a := setupAPI(t)
	rc := seedCatalog(t, a)
	lunch := testhelpers.CreateTag(t, a.db, "Lunch", "lunch")
	chef := testhelpers.CreateUser(t, a.db, "chef")
	fan := testhelpers.CreateUser(t, a.db, "fan")
	pancakes := testhelpers.CreateRecipe(t, a.db, chef, "pancakes", []*models.Tag{rc.breakfast})
	testhelpers.CreateRecipe(t, a.db, chef, "sandwich", []*models.Tag{lunch})
	testhelpers.CreateRecipe(t, a.db, fan, "omelette", []*models.Tag{rc.breakfast})

	w := a.do(http.MethodGet, "/api/recipes", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 3, decode[types.RecipePage](t, w).Count)

	w = a.do(http.MethodGet, "/api/recipes?tags=breakfast&author="+chef.ID.String(), "", nil)
	requireStatus(t, w, http.StatusOK)
	page := decode[types.RecipePage](t, w)
	require.Len(t, page.Results, 1)
	assert.Equal(t, pancakes.ID, page.Results[0].ID)

	w = a.do(http.MethodPost, "/api/recipes/"+pancakes.ID.String()+"/favorite", a.token(fan), nil)
	requireStatus(t, w, http.StatusCreated)

	w = a.do(http.MethodGet, "/api/recipes?is_favorited=1", a.token(fan), nil)
	requireStatus(t, w, http.StatusOK)
	page = decode[types.RecipePage](t, w)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	// relation filters do nothing for anonymous viewers
	w = a.do(http.MethodGet, "/api/recipes?is_favorited=1", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.EqualValues(t, 3, decode[types.RecipePage](t, w).Count)

	w = a.do(http.MethodGet, "/api/recipes?limit=2&page=2", "", nil)
	requireStatus(t, w, http.StatusOK)
	page = decode[types.RecipePage](t, w)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, 2, page.Page)

	w = a.do(http.MethodGet, "/api/recipes?page=abc", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
	w = a.do(http.MethodGet, "/api/recipes?author=abc", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
}
