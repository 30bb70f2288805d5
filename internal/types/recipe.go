package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
)

// IngredientAmountInput is one ingredient line of a recipe write payload
type IngredientAmountInput struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount"`
}

// RecipeInput is the write view of a recipe. A nil field means the field
// was omitted: create requires every field, update leaves omitted fields
// untouched. Image carries either a data:image/...;base64 payload or a URL.
type RecipeInput struct {
	Name        *string                 `json:"name" binding:"omitempty,max=200"`
	Text        *string                 `json:"text"`
	CookingTime *int                    `json:"cooking_time"`
	Image       *string                 `json:"image"`
	Tags        []uuid.UUID             `json:"tags"`
	Ingredients []IngredientAmountInput `json:"ingredients" binding:"omitempty,dive"`
}

// IngredientAmountView is one ingredient line of the read view
type IngredientAmountView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeView is the read view of a recipe. The derived flags are relative
// to the viewer the view was built for.
type RecipeView struct {
	ID               uuid.UUID              `json:"id"`
	Tags             []models.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []IngredientAmountView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
	CreatedAt        time.Time              `json:"created_at"`
}

// BriefRecipe is the short recipe form used by favorites, the cart and
// subscriptions
type BriefRecipe struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// NewBriefRecipe builds the short form from a stored recipe
func NewBriefRecipe(r *models.Recipe) BriefRecipe {
	return BriefRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// RecipeFilter narrows recipe listings. The relation filters are ignored for
// anonymous viewers.
type RecipeFilter struct {
	AuthorID         *uuid.UUID
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Query            string
}

// RecipePage is one page of recipe read views
type RecipePage struct {
	Count   int64        `json:"count"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
	Results []RecipeView `json:"results"`
}

// ShoppingListItem is one consolidated line of a shopping list
type ShoppingListItem struct {
	Name            string `json:"name"`
	TotalAmount     int    `json:"total_amount"`
	MeasurementUnit string `json:"measurement_unit"`
}
