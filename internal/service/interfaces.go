package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// IngredientCatalog is the read-only ingredient lookup used by composition
// validation.
type IngredientCatalog interface {
	GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error)
	IngredientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TagCatalog is the read-only tag lookup used by composition validation.
type TagCatalog interface {
	GetTagsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
}

// ImageStore persists decoded images and returns a stable URL for them.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType, ext string) (string, error)
}

// SearchIndex keeps recipe search vectors in sync with recipe writes. Calls
// receive the transaction of the write they belong to.
type SearchIndex interface {
	Index(tx *gorm.DB, recipe *models.Recipe) error
	Remove(tx *gorm.DB, recipeID uuid.UUID) error
	Rank(query *gorm.DB, text string) *gorm.DB
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, author uuid.UUID, input *types.RecipeInput) (*types.RecipeView, error)
	UpdateRecipe(ctx context.Context, actor uuid.UUID, recipeID uuid.UUID, input *types.RecipeInput) (*types.RecipeView, error)
	DeleteRecipe(ctx context.Context, actor uuid.UUID, recipeID uuid.UUID) error
	GetRecipe(ctx context.Context, recipeID uuid.UUID, viewer *uuid.UUID) (*types.RecipeView, error)
	ListRecipes(ctx context.Context, filter types.RecipeFilter, page types.Page, viewer *uuid.UUID) (*types.RecipePage, error)
	BriefRecipe(ctx context.Context, recipeID uuid.UUID) (*types.BriefRecipe, error)
}

// IShoppingListService defines the interface for shopping list aggregation
type IShoppingListService interface {
	BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error)
	Report(ctx context.Context, userID uuid.UUID) (string, error)
}

// IUserService defines the interface for user views and subscriptions
type IUserService interface {
	GetUser(ctx context.Context, userID uuid.UUID, viewer *uuid.UUID) (*types.UserView, error)
	ListUsers(ctx context.Context, page types.Page, viewer *uuid.UUID) (*types.UserPage, error)
	Subscribe(ctx context.Context, follower, author uuid.UUID, recipesLimit int) (*types.SubscriptionView, error)
	Unsubscribe(ctx context.Context, follower, author uuid.UUID) error
	ListSubscriptions(ctx context.Context, follower uuid.UUID, page types.Page, recipesLimit int) (*types.SubscriptionPage, error)
}
