package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenerateEmbedding returns a simple deterministic embedding for the given text.
// This implementation counts the total length, vowels and consonants.
func GenerateEmbedding(text string) pgvector.Vector {
	text = strings.ToLower(text)
	var vowels, consonants float32
	for _, r := range text {
		if strings.ContainsRune("aeiou", r) {
			vowels++
		} else if r >= 'a' && r <= 'z' {
			consonants++
		}
	}
	length := float32(len([]rune(text)))
	return pgvector.NewVector([]float32{length, vowels, consonants})
}

// NewSearchIndex picks the index matching the database dialect: pgvector
// ranking on postgres, plain substring matching elsewhere.
func NewSearchIndex(db *gorm.DB, logger *zap.Logger) SearchIndex {
	if db.Dialector.Name() == "postgres" {
		return &VectorIndex{logger: logger}
	}
	return LikeIndex{}
}

// VectorIndex stores one embedding per recipe in recipe_embeddings and
// orders search results by L2 distance to the query embedding.
type VectorIndex struct {
	logger *zap.Logger
}

func (v *VectorIndex) Index(tx *gorm.DB, recipe *models.Recipe) error {
	row := models.RecipeEmbedding{
		RecipeID:  recipe.ID,
		Embedding: GenerateEmbedding(recipe.Name + " " + recipe.Text),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipe_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to index recipe: %w", err)
	}
	v.logger.Debug("indexed recipe", zap.String("recipe_id", recipe.ID.String()))
	return nil
}

func (v *VectorIndex) Remove(tx *gorm.DB, recipeID uuid.UUID) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeEmbedding{}).Error; err != nil {
		return fmt.Errorf("failed to drop recipe embedding: %w", err)
	}
	return nil
}

// Rank keeps name matches and orders them by embedding distance.
func (v *VectorIndex) Rank(query *gorm.DB, text string) *gorm.DB {
	query = LikeIndex{}.Rank(query, text)
	return query.
		Joins("LEFT JOIN recipe_embeddings ON recipe_embeddings.recipe_id = recipes.id").
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "recipe_embeddings.embedding <-> ? NULLS LAST",
			Vars: []interface{}{GenerateEmbedding(text)},
		}})
}

// LikeIndex is the keyword-only fallback used where pgvector is missing.
type LikeIndex struct{}

func (LikeIndex) Index(*gorm.DB, *models.Recipe) error { return nil }

func (LikeIndex) Remove(*gorm.DB, uuid.UUID) error { return nil }

func (LikeIndex) Rank(query *gorm.DB, text string) *gorm.DB {
	like := "%" + escapeLike(strings.ToLower(strings.TrimSpace(text))) + "%"
	return query.Where("LOWER(recipes.name) LIKE ? ESCAPE '\\'", like)
}
