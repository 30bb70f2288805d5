package models

import (
	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// RecipeEmbedding holds the search vector of a recipe. The table only
// exists on postgres with the vector extension installed.
type RecipeEmbedding struct {
	RecipeID  uuid.UUID       `gorm:"type:uuid;primarykey"`
	Embedding pgvector.Vector `gorm:"type:vector(3)"`
}

func (RecipeEmbedding) TableName() string {
	return "recipe_embeddings"
}

// All returns the models managed by automigration, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartItem{},
		&Follow{},
	}
}
