package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestConcurrentFavoriteAddsYieldOneRow(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "alice")
	recipe := testhelpers.CreateRecipe(t, db, user, "soup", nil)
	favorites := service.NewFavorites(db)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := favorites.Add(ctx, user.ID, recipe.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, service.ErrAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	var count int64
	require.NoError(t, db.Model(&models.Favorite{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSchemaRejectsOutOfRangeRows(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	user := testhelpers.CreateUser(t, db, "alice")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	recipe := testhelpers.CreateRecipe(t, db, user, "soup", nil)

	err := db.Create(&models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: salt.ID, Amount: 0}).Error
	assert.Error(t, err)

	err = db.Create(&models.Tag{Name: "Pink", Slug: "pink", Color: "#ffc0cb"}).Error
	assert.Error(t, err)

	_, err = service.NewFollows(db).Add(context.Background(), user.ID, user.ID)
	assert.True(t, service.IsValidationKind(err, service.SelfFollow))
	err = db.Create(&models.Follow{FollowerID: user.ID, FollowingID: user.ID}).Error
	assert.Error(t, err, "the schema rejects self follows too")
}

func TestRecipeLifecycleWithVectorIndex(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()
	chef := testhelpers.CreateUser(t, db, "chef")
	fan := testhelpers.CreateUser(t, db, "fan")
	tag := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	pepper := testhelpers.CreateIngredient(t, db, "pepper", "g")

	catalog := service.NewCatalogService(db)
	search := service.NewSearchIndex(db, zap.NewNop())
	require.IsType(t, &service.VectorIndex{}, search)
	recipes := service.NewRecipeService(db, service.NewCompositionValidator(catalog, catalog), nil, search, zap.NewNop())

	create := func(name string, lines ...types.IngredientAmountInput) *types.RecipeView {
		view, err := recipes.CreateRecipe(ctx, chef.ID, &types.RecipeInput{
			Name:        strPtr(name),
			Text:        strPtr("Cook " + name),
			CookingTime: intPtr(20),
			Image:       strPtr("https://images.example.com/" + name + ".png"),
			Tags:        []uuid.UUID{tag.ID},
			Ingredients: lines,
		})
		require.NoError(t, err)
		return view
	}
	soup := create("tomato soup", types.IngredientAmountInput{ID: salt.ID, Amount: 5})
	stew := create("soup stew",
		types.IngredientAmountInput{ID: salt.ID, Amount: 3},
		types.IngredientAmountInput{ID: pepper.ID, Amount: 2})
	create("pancakes", types.IngredientAmountInput{ID: salt.ID, Amount: 1})

	var indexed int64
	require.NoError(t, db.Model(&models.RecipeEmbedding{}).Count(&indexed).Error)
	assert.EqualValues(t, 3, indexed)

	page, err := recipes.ListRecipes(ctx, types.RecipeFilter{Query: "soup"}, types.Page{Limit: 10}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	ids := []uuid.UUID{page.Results[0].ID, page.Results[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{soup.ID, stew.ID}, ids)

	cart := service.NewShoppingCart(db)
	for _, id := range []uuid.UUID{soup.ID, stew.ID} {
		_, err := cart.Add(ctx, fan.ID, id)
		require.NoError(t, err)
	}
	report, err := service.NewShoppingListService(db).Report(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, "pepper: 2 g\nsalt: 8 g\n", report)

	require.NoError(t, recipes.DeleteRecipe(ctx, chef.ID, soup.ID))
	require.NoError(t, db.Model(&models.RecipeEmbedding{}).Count(&indexed).Error)
	assert.EqualValues(t, 2, indexed)

	report, err = service.NewShoppingListService(db).Report(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, "pepper: 2 g\nsalt: 3 g\n", report)
}

func TestMigrationsRollBack(t *testing.T) {
	dsn := testhelpers.StartPostgres(t)
	ctx := context.Background()
	log := zap.NewNop()

	require.NoError(t, database.MigrateUp(ctx, dsn, log))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	assert.True(t, db.Migrator().HasTable("recipe_embeddings"))

	require.NoError(t, database.MigrateDown(ctx, dsn, log))
	assert.False(t, db.Migrator().HasTable("recipe_embeddings"))
	assert.True(t, db.Migrator().HasTable("recipes"))

	require.NoError(t, database.MigrateUp(ctx, dsn, log))
	assert.True(t, db.Migrator().HasTable("recipe_embeddings"))
}
