package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CompositionValidator checks the tag and ingredient sets of a recipe write
// against each other and against the catalogs. It never writes.
type CompositionValidator struct {
	ingredients IngredientCatalog
	tags        TagCatalog
}

// NewCompositionValidator creates a validator over the given catalogs. A nil
// tag catalog disables the tag existence check.
func NewCompositionValidator(ingredients IngredientCatalog, tags TagCatalog) *CompositionValidator {
	return &CompositionValidator{ingredients: ingredients, tags: tags}
}

// Composition is a candidate recipe composition. CookingTime is optional so
// that the same checks serve partial updates.
type Composition struct {
	Tags        []uuid.UUID
	Ingredients []types.IngredientAmountInput
	CookingTime *int
}

// ValidateComposition returns a *ValidationError describing the first rule
// the candidate composition breaks. Local rules are checked before the
// catalog lookups so that malformed payloads never reach the database.
func (v *CompositionValidator) ValidateComposition(ctx context.Context, c Composition) error {
	if err := validateTagSet(c.Tags); err != nil {
		return err
	}
	if err := validateLines(c.Ingredients); err != nil {
		return err
	}
	if c.CookingTime != nil {
		if err := ValidateCookingTime(*c.CookingTime); err != nil {
			return err
		}
	}
	if err := v.checkIngredientsExist(ctx, c.Ingredients); err != nil {
		return err
	}
	return v.checkTagsExist(ctx, c.Tags)
}

// ValidateTags runs the tag rules alone, for updates that replace only the
// tag set.
func (v *CompositionValidator) ValidateTags(ctx context.Context, tags []uuid.UUID) error {
	if err := validateTagSet(tags); err != nil {
		return err
	}
	return v.checkTagsExist(ctx, tags)
}

// ValidateIngredients runs the ingredient rules alone, for updates that
// replace only the ingredient lines.
func (v *CompositionValidator) ValidateIngredients(ctx context.Context, lines []types.IngredientAmountInput) error {
	if err := validateLines(lines); err != nil {
		return err
	}
	return v.checkIngredientsExist(ctx, lines)
}

// ValidateCookingTime checks the cooking time bounds.
func ValidateCookingTime(minutes int) error {
	if minutes < models.MinCookingTime || minutes > models.MaxCookingTime {
		return &ValidationError{Kind: OutOfRange, Field: "cooking_time"}
	}
	return nil
}

func validateTagSet(tags []uuid.UUID) error {
	if len(tags) == 0 {
		return &ValidationError{Kind: EmptyTags, Field: "tags"}
	}
	seen := make(map[uuid.UUID]struct{}, len(tags))
	for _, id := range tags {
		if _, dup := seen[id]; dup {
			return &ValidationError{Kind: DuplicateTags, Field: "tags"}
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateLines(lines []types.IngredientAmountInput) error {
	if len(lines) == 0 {
		return &ValidationError{Kind: EmptyIngredients, Field: "ingredients"}
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return &ValidationError{Kind: DuplicateIngredients, Field: "ingredients"}
		}
		seen[line.ID] = struct{}{}
	}
	for i, line := range lines {
		if line.Amount < models.MinAmount || line.Amount > models.MaxAmount {
			return &ValidationError{Kind: OutOfRange, Field: fmt.Sprintf("ingredients[%d].amount", i)}
		}
	}
	return nil
}

func (v *CompositionValidator) checkIngredientsExist(ctx context.Context, lines []types.IngredientAmountInput) error {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ID
	}
	found, err := v.ingredients.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, ing := range found {
		known[ing.ID] = struct{}{}
	}
	if missing := missingIDs(ids, known); len(missing) > 0 {
		return &ValidationError{Kind: UnknownIngredients, Field: "ingredients", MissingIDs: missing}
	}
	return nil
}

func (v *CompositionValidator) checkTagsExist(ctx context.Context, tags []uuid.UUID) error {
	if v.tags == nil {
		return nil
	}
	found, err := v.tags.GetTagsByIDs(ctx, tags)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, tag := range found {
		known[tag.ID] = struct{}{}
	}
	if missing := missingIDs(tags, known); len(missing) > 0 {
		return &ValidationError{Kind: UnknownTags, Field: "tags", MissingIDs: missing}
	}
	return nil
}

// missingIDs returns the ids absent from known, in input order.
func missingIDs(ids []uuid.UUID, known map[uuid.UUID]struct{}) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
