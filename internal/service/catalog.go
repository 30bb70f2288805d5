package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// CatalogService serves the tag and ingredient reference data.
type CatalogService struct {
	db *gorm.DB
}

var (
	_ IngredientCatalog = (*CatalogService)(nil)
	_ TagCatalog        = (*CatalogService)(nil)
)

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// GetIngredientsByIDs returns the ingredients among ids that exist. Unknown
// ids are silently absent from the result.
func (s *CatalogService) GetIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	return ingredients, nil
}

// IngredientExists reports whether id is in the catalog.
func (s *CatalogService) IngredientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check ingredient: %w", err)
	}
	return count > 0, nil
}

// GetIngredient returns one ingredient by id.
func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "ingredient")
	}
	return &ingredient, nil
}

// ListIngredients returns the catalog ordered by name, optionally narrowed to
// names starting with prefix (case-insensitive).
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// ImportIngredients inserts the given rows in one transaction, skipping rows
// that repeat an earlier (name, unit) pair of the same batch. It returns the
// number of inserted rows.
func (s *CatalogService) ImportIngredients(ctx context.Context, rows []models.Ingredient) (int, error) {
	seen := make(map[[2]string]struct{}, len(rows))
	batch := make([]models.Ingredient, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		unit := strings.TrimSpace(row.MeasurementUnit)
		if name == "" || unit == "" {
			continue
		}
		key := [2]string{name, unit}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
	if len(batch) == 0 {
		return 0, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, 500).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", err)
	}
	return len(batch), nil
}

// ListTags returns every tag ordered by name.
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one tag by id.
func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "tag")
	}
	return &tag, nil
}

// GetTagsByIDs returns the tags among ids that exist.
func (s *CatalogService) GetTagsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	return tags, nil
}

// CreateTag adds a tag. The color must belong to the palette and the slug
// must be unused.
func (s *CatalogService) CreateTag(ctx context.Context, tag *models.Tag) error {
	if !models.IsTagColor(tag.Color) {
		return &ValidationError{Kind: OutOfRange, Field: "color"}
	}
	if strings.TrimSpace(tag.Name) == "" {
		return &ValidationError{Kind: MissingField, Field: "name"}
	}
	if strings.TrimSpace(tag.Slug) == "" {
		return &ValidationError{Kind: MissingField, Field: "slug"}
	}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tag slug %q: %w", tag.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
