package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeService handles recipe operations. Writes replace the tag set and the
// ingredient lines wholesale inside one transaction.
type RecipeService struct {
	db        *gorm.DB
	validator *CompositionValidator
	images    ImageStore
	search    SearchIndex
	favorites *RelationSet[models.Favorite]
	cart      *RelationSet[models.ShoppingCartItem]
	follows   *Follows
	logger    *zap.Logger
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, validator *CompositionValidator, images ImageStore, search SearchIndex, logger *zap.Logger) *RecipeService {
	if search == nil {
		search = LikeIndex{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		db:        db,
		validator: validator,
		images:    images,
		search:    search,
		favorites: NewFavorites(db),
		cart:      NewShoppingCart(db),
		follows:   NewFollows(db),
		logger:    logger,
	}
}

// CreateRecipe validates the payload, stores the image and writes the recipe
// with its tags and lines atomically.
func (s *RecipeService) CreateRecipe(ctx context.Context, author uuid.UUID, input *types.RecipeInput) (*types.RecipeView, error) {
	if err := requireRecipeFields(input); err != nil {
		return nil, err
	}
	err := s.validator.ValidateComposition(ctx, Composition{
		Tags:        input.Tags,
		Ingredients: input.Ingredients,
		CookingTime: input.CookingTime,
	})
	if err != nil {
		return nil, err
	}
	image, err := resolveImage(ctx, s.images, *input.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    author,
		Name:        strings.TrimSpace(*input.Name),
		Text:        *input.Text,
		CookingTime: *input.CookingTime,
		Image:       image,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := writeTags(tx, recipe.ID, input.Tags); err != nil {
			return err
		}
		if err := writeLines(tx, recipe.ID, input.Ingredients); err != nil {
			return err
		}
		return s.search.Index(tx, recipe)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("author_id", author.String()))
	return s.GetRecipe(ctx, recipe.ID, &author)
}

// UpdateRecipe applies the fields present in input. A present tag set or
// ingredient list replaces the stored one entirely; an absent one is kept.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor uuid.UUID, recipeID uuid.UUID, input *types.RecipeInput) (*types.RecipeView, error) {
	recipe, err := s.loadForWrite(ctx, actor, recipeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, &ValidationError{Kind: MissingField, Field: "name"}
		}
		updates["name"] = name
	}
	if input.Text != nil {
		if strings.TrimSpace(*input.Text) == "" {
			return nil, &ValidationError{Kind: MissingField, Field: "text"}
		}
		updates["text"] = *input.Text
	}
	if input.CookingTime != nil {
		if err := ValidateCookingTime(*input.CookingTime); err != nil {
			return nil, err
		}
		updates["cooking_time"] = *input.CookingTime
	}
	if input.Tags != nil {
		if err := s.validator.ValidateTags(ctx, input.Tags); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if err := s.validator.ValidateIngredients(ctx, input.Ingredients); err != nil {
			return nil, err
		}
	}
	if input.Image != nil {
		image, err := resolveImage(ctx, s.images, *input.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		if input.Tags != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
				return fmt.Errorf("failed to clear recipe tags: %w", err)
			}
			if err := writeTags(tx, recipe.ID, input.Tags); err != nil {
				return err
			}
		}
		if input.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return fmt.Errorf("failed to clear recipe ingredients: %w", err)
			}
			if err := writeLines(tx, recipe.ID, input.Ingredients); err != nil {
				return err
			}
		}
		return s.search.Index(tx, recipe)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe updated", zap.String("recipe_id", recipe.ID.String()))
	return s.GetRecipe(ctx, recipe.ID, &actor)
}

// DeleteRecipe removes the recipe together with its lines, tags and every
// favorite and cart entry pointing at it.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor uuid.UUID, recipeID uuid.UUID) error {
	recipe, err := s.loadForWrite(ctx, actor, recipeID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []interface{}{
			&models.Favorite{},
			&models.ShoppingCartItem{},
			&models.RecipeIngredient{},
			&models.RecipeTag{},
		}
		for _, child := range children {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete recipe children: %w", err)
			}
		}
		if err := s.search.Remove(tx, recipe.ID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Recipe{}, "id = ?", recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("recipe deleted", zap.String("recipe_id", recipe.ID.String()))
	return nil
}

// GetRecipe returns the read view of a recipe for viewer, who may be nil.
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID, viewer *uuid.UUID) (*types.RecipeView, error) {
	var recipe models.Recipe
	if err := s.withAssociations(s.db.WithContext(ctx)).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	views, err := s.views(ctx, []models.Recipe{recipe}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first unless a text query
// imposes its own ranking.
func (s *RecipeService) ListRecipes(ctx context.Context, filter types.RecipeFilter, page types.Page, viewer *uuid.UUID) (*types.RecipePage, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.WithContext(ctx).Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewer != nil && filter.IsFavorited {
		query = query.Where("recipes.id IN (?)", s.favorites.ObjectsOf(ctx, *viewer))
	}
	if viewer != nil && filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)", s.cart.ObjectsOf(ctx, *viewer))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = s.search.Rank(query, q)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := s.withAssociations(query).
		Select("recipes.*").
		Order("recipes.created_at DESC").
		Order("recipes.id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.views(ctx, recipes, viewer)
	if err != nil {
		return nil, err
	}
	return &types.RecipePage{Count: count, Page: page.Number, Limit: page.Limit, Results: views}, nil
}

// BriefRecipe returns the short form of a recipe.
func (s *RecipeService) BriefRecipe(ctx context.Context, recipeID uuid.UUID) (*types.BriefRecipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	brief := types.NewBriefRecipe(&recipe)
	return &brief, nil
}

// loadForWrite fetches the recipe and checks that actor is its author or
// staff.
func (s *RecipeService) loadForWrite(ctx context.Context, actor, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	if recipe.AuthorID == actor {
		return &recipe, nil
	}
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "is_staff").First(&user, "id = ?", actor).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if err != nil || !user.IsStaff {
		return nil, fmt.Errorf("recipe %s: %w", recipeID, ErrForbidden)
	}
	return &recipe, nil
}

func (s *RecipeService) withAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.position") }).
		Preload("Ingredients.Ingredient")
}

// views builds read views for recipes with the viewer-relative flags looked
// up in one query per relation.
func (s *RecipeService) views(ctx context.Context, recipes []models.Recipe, viewer *uuid.UUID) ([]types.RecipeView, error) {
	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}
	favorited, err := s.favorites.ExistsAmong(ctx, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.ExistsAmong(ctx, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.ExistsAmong(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]types.RecipeView, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		view := types.RecipeView{
			ID:               r.ID,
			Tags:             r.Tags,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
		}
		if view.Tags == nil {
			view.Tags = []models.Tag{}
		}
		if r.Author != nil {
			view.Author = types.NewUserView(r.Author, following[r.AuthorID])
		}
		view.Ingredients = make([]types.IngredientAmountView, 0, len(r.Ingredients))
		for _, line := range r.Ingredients {
			item := types.IngredientAmountView{ID: line.IngredientID, Amount: line.Amount}
			if line.Ingredient != nil {
				item.Name = line.Ingredient.Name
				item.MeasurementUnit = line.Ingredient.MeasurementUnit
			}
			view.Ingredients = append(view.Ingredients, item)
		}
		views[i] = view
	}
	return views, nil
}

func requireRecipeFields(input *types.RecipeInput) error {
	switch {
	case input.Name == nil || strings.TrimSpace(*input.Name) == "":
		return &ValidationError{Kind: MissingField, Field: "name"}
	case input.Text == nil || strings.TrimSpace(*input.Text) == "":
		return &ValidationError{Kind: MissingField, Field: "text"}
	case input.CookingTime == nil:
		return &ValidationError{Kind: MissingField, Field: "cooking_time"}
	case input.Image == nil:
		return &ValidationError{Kind: MissingField, Field: "image"}
	}
	return nil
}

func writeTags(tx *gorm.DB, recipeID uuid.UUID, tags []uuid.UUID) error {
	rows := make([]models.RecipeTag, len(tags))
	for i, tagID := range tags {
		rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: tagID}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write recipe tags: %w", err)
	}
	return nil
}

func writeLines(tx *gorm.DB, recipeID uuid.UUID, lines []types.IngredientAmountInput) error {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       line.Amount,
			Position:     i,
		}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write recipe ingredients: %w", err)
	}
	return nil
}
