package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIngredientsByPrefix(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	testhelpers.CreateIngredient(t, db, "Sugar", "g")
	testhelpers.CreateIngredient(t, db, "salt", "g")
	testhelpers.CreateIngredient(t, db, "pepper", "g")
	testhelpers.CreateIngredient(t, db, "s%weird", "g")

	found, err := svc.ListIngredients(context.Background(), "S")
	require.NoError(t, err)
	var names []string
	for _, ing := range found {
		names = append(names, ing.Name)
	}
	assert.ElementsMatch(t, []string{"Sugar", "salt", "s%weird"}, names)

	found, err = svc.ListIngredients(context.Background(), "s%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "s%weird", found[0].Name)

	all, err := svc.ListIngredients(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGetIngredientsByIDs(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	found, err := svc.GetIngredientsByIDs(context.Background(), []uuid.UUID{salt.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, salt.ID, found[0].ID)

	exists, err := svc.IngredientExists(context.Background(), salt.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.GetIngredient(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestImportIngredients(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)

	n, err := svc.ImportIngredients(context.Background(), []models.Ingredient{
		{Name: "salt", MeasurementUnit: "g"},
		{Name: " salt ", MeasurementUnit: "g"},
		{Name: "salt", MeasurementUnit: "tsp"},
		{Name: "", MeasurementUnit: "g"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCreateTag(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	err := svc.CreateTag(ctx, &models.Tag{Name: "Dinner", Slug: "dinner", Color: "#000000"})
	assert.True(t, service.IsValidationKind(err, service.OutOfRange))

	tag := &models.Tag{Name: "Dinner", Slug: "dinner", Color: models.TagColorRed}
	require.NoError(t, svc.CreateTag(ctx, tag))
	assert.ErrorIs(t, svc.CreateTag(ctx, &models.Tag{Name: "Supper", Slug: "dinner", Color: models.TagColorRed}), service.ErrAlreadyExists)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	got, err := svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Slug)
}
