package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateLines(t *testing.T) {
	items := service.AggregateLines([]service.CartLine{
		{Name: "Salt", MeasurementUnit: "g", Amount: 5},
		{Name: "Pepper", MeasurementUnit: "g", Amount: 2},
		{Name: "Salt", MeasurementUnit: "g", Amount: 3},
		{Name: "Salt", MeasurementUnit: "tsp", Amount: 1},
	})

	assert.Equal(t, []types.ShoppingListItem{
		{Name: "Pepper", TotalAmount: 2, MeasurementUnit: "g"},
		{Name: "Salt", TotalAmount: 8, MeasurementUnit: "g"},
		{Name: "Salt", TotalAmount: 1, MeasurementUnit: "tsp"},
	}, items)
}

func TestAggregateLinesIsOrderIndependent(t *testing.T) {
	a := service.AggregateLines([]service.CartLine{
		{Name: "b", MeasurementUnit: "g", Amount: 1},
		{Name: "a", MeasurementUnit: "g", Amount: 1},
	})
	b := service.AggregateLines([]service.CartLine{
		{Name: "a", MeasurementUnit: "g", Amount: 1},
		{Name: "b", MeasurementUnit: "g", Amount: 1},
	})
	assert.Equal(t, a, b)
}

func TestRenderReport(t *testing.T) {
	assert.Equal(t, "", service.RenderReport(nil))
	assert.Equal(t, "Pepper: 2 g\nSalt: 8 g\n", service.RenderReport([]types.ShoppingListItem{
		{Name: "Pepper", TotalAmount: 2, MeasurementUnit: "g"},
		{Name: "Salt", TotalAmount: 8, MeasurementUnit: "g"},
	}))
}

func TestShoppingListReport(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "alice")
	salt := testhelpers.CreateIngredient(t, db, "Salt", "g")
	pepper := testhelpers.CreateIngredient(t, db, "Pepper", "g")
	soup := testhelpers.CreateRecipe(t, db, user, "soup", nil, testhelpers.Line{Ingredient: salt, Amount: 5})
	stew := testhelpers.CreateRecipe(t, db, user, "stew", nil,
		testhelpers.Line{Ingredient: salt, Amount: 3},
		testhelpers.Line{Ingredient: pepper, Amount: 2})
	// not in the cart
	testhelpers.CreateRecipe(t, db, user, "salad", nil, testhelpers.Line{Ingredient: salt, Amount: 100})

	cart := service.NewShoppingCart(db)
	svc := service.NewShoppingListService(db)

	report, err := svc.Report(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "", report)

	_, err = cart.Add(ctx, user.ID, soup.ID)
	require.NoError(t, err)
	_, err = cart.Add(ctx, user.ID, stew.ID)
	require.NoError(t, err)

	report, err = svc.Report(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pepper: 2 g\nSalt: 8 g\n", report)

	require.NoError(t, cart.Remove(ctx, user.ID, stew.ID))
	report, err = svc.Report(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salt: 5 g\n", report)
}

func TestShoppingListIsPerUser(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	salt := testhelpers.CreateIngredient(t, db, "Salt", "g")
	soup := testhelpers.CreateRecipe(t, db, alice, "soup", nil, testhelpers.Line{Ingredient: salt, Amount: 5})

	_, err := service.NewShoppingCart(db).Add(ctx, alice.ID, soup.ID)
	require.NoError(t, err)

	items, err := service.NewShoppingListService(db).BuildShoppingList(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
