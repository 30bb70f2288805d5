package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// ShoppingListService folds the recipes in a user's cart into one list of
// ingredients.
type ShoppingListService struct {
	db *gorm.DB
}

var _ IShoppingListService = (*ShoppingListService)(nil)

// NewShoppingListService creates a new ShoppingListService instance
func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// CartLine is one ingredient line of one recipe in a cart.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// BuildShoppingList returns the consolidated list for userID. Lines sharing
// both name and unit are summed; the result is ordered by name, then unit.
// An empty cart yields an empty list.
func (s *ShoppingListService) BuildShoppingList(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error) {
	var lines []CartLine
	err := s.db.WithContext(ctx).
		Table("shopping_cart_items").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_items.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart lines: %w", err)
	}
	return AggregateLines(lines), nil
}

// Report renders the shopping list of userID as plain text.
func (s *ShoppingListService) Report(ctx context.Context, userID uuid.UUID) (string, error) {
	items, err := s.BuildShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderReport(items), nil
}

// AggregateLines groups lines by (name, unit) and sums their amounts.
// Ingredients with the same name but different units stay separate.
func AggregateLines(lines []CartLine) []types.ShoppingListItem {
	type key struct{ name, unit string }
	totals := make(map[key]int, len(lines))
	for _, line := range lines {
		totals[key{line.Name, line.MeasurementUnit}] += line.Amount
	}
	items := make([]types.ShoppingListItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, types.ShoppingListItem{
			Name:            k.name,
			TotalAmount:     total,
			MeasurementUnit: k.unit,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// RenderReport writes one "<name>: <total> <unit>" line per item.
func RenderReport(items []types.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.Name)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(item.TotalAmount))
		b.WriteByte(' ')
		b.WriteString(item.MeasurementUnit)
		b.WriteByte('\n')
	}
	return b.String()
}
