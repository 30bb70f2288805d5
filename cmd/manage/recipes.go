package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecipeSeed is one recipe of a seed file. Catalog entries and the author
// are referenced by name so that seed files survive a fresh database.
type RecipeSeed struct {
	Author      string           `json:"author"`
	Name        string           `json:"name"`
	Text        string           `json:"text"`
	CookingTime int              `json:"cooking_time"`
	Image       string           `json:"image"`
	Tags        []string         `json:"tags"`
	Ingredients []IngredientSeed `json:"ingredients"`
}

type IngredientSeed struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

func readRecipeSeeds(r io.Reader) ([]RecipeSeed, error) {
	var seeds []RecipeSeed
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seeds, nil
}

func newSeedRecipesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-recipes <file.json>",
		Short: "Create recipes from a JSON seed file through the regular validation",
		Long: "Create recipes from a JSON seed file. Images may be URLs or data: URIs; " +
			"inline images go to the same store the API uses.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			seeds, err := readRecipeSeeds(f)
			if err != nil {
				return err
			}

			images, _, err := storage.FromConfig(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			catalog := service.NewCatalogService(a.db)
			recipes := service.NewRecipeService(a.db,
				service.NewCompositionValidator(catalog, catalog),
				images,
				service.NewSearchIndex(a.db, a.logger),
				a.logger)

			created := 0
			for _, seed := range seeds {
				author, input, err := resolveSeed(cmd.Context(), a.db, seed)
				if err != nil {
					a.logger.Warn("skipping recipe", zap.String("name", seed.Name), zap.Error(err))
					continue
				}
				view, err := recipes.CreateRecipe(cmd.Context(), author, input)
				if err != nil {
					a.logger.Warn("failed to create recipe", zap.String("name", seed.Name), zap.Error(err))
					continue
				}
				created++
				a.logger.Info("created recipe", zap.String("name", view.Name), zap.String("id", view.ID.String()))
			}
			a.logger.Info("seeded recipes", zap.Int("created", created), zap.Int("total", len(seeds)))
			return nil
		},
	}
}

// resolveSeed maps the names in seed to stored ids.
func resolveSeed(ctx context.Context, db *gorm.DB, seed RecipeSeed) (uuid.UUID, *types.RecipeInput, error) {
	db = db.WithContext(ctx)

	var author models.User
	if err := db.First(&author, "username = ?", seed.Author).Error; err != nil {
		return uuid.Nil, nil, fmt.Errorf("author %q: %w", seed.Author, err)
	}

	input := &types.RecipeInput{
		Name:        &seed.Name,
		Text:        &seed.Text,
		CookingTime: &seed.CookingTime,
		Image:       &seed.Image,
		Tags:        make([]uuid.UUID, 0, len(seed.Tags)),
		Ingredients: make([]types.IngredientAmountInput, 0, len(seed.Ingredients)),
	}
	for _, slug := range seed.Tags {
		var tag models.Tag
		if err := db.First(&tag, "slug = ?", slug).Error; err != nil {
			return uuid.Nil, nil, fmt.Errorf("tag %q: %w", slug, err)
		}
		input.Tags = append(input.Tags, tag.ID)
	}
	for _, line := range seed.Ingredients {
		var ingredient models.Ingredient
		err := db.First(&ingredient, "name = ? AND measurement_unit = ?", line.Name, line.MeasurementUnit).Error
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("ingredient %q (%s): %w", line.Name, line.MeasurementUnit, err)
		}
		input.Ingredients = append(input.Ingredients, types.IngredientAmountInput{ID: ingredient.ID, Amount: line.Amount})
	}
	return author.ID, input, nil
}
