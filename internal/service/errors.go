package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyExists is returned when a relation pair is already stored.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned for missing recipes, users, catalog entries
	// and relation pairs.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor may not modify a recipe.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidToken is returned by the token service for bad credentials.
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationKind names the rule a client payload broke.
type ValidationKind string

const (
	EmptyTags            ValidationKind = "empty_tags"
	DuplicateTags        ValidationKind = "duplicate_tags"
	UnknownTags          ValidationKind = "unknown_tags"
	EmptyIngredients     ValidationKind = "empty_ingredients"
	DuplicateIngredients ValidationKind = "duplicate_ingredients"
	UnknownIngredients   ValidationKind = "unknown_ingredients"
	OutOfRange           ValidationKind = "out_of_range"
	SelfFollow           ValidationKind = "self_follow"
	MissingField         ValidationKind = "missing_field"
	InvalidImage         ValidationKind = "invalid_image"
)

// ValidationError describes a rejected client payload. MissingIDs is set for
// UnknownIngredients and UnknownTags and lists every id that was not found.
type ValidationError struct {
	Kind       ValidationKind
	Field      string
	MissingIDs []uuid.UUID
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.MissingIDs) > 0:
		ids := make([]string, len(e.MissingIDs))
		for i, id := range e.MissingIDs {
			ids[i] = id.String()
		}
		return fmt.Sprintf("%s: %s [%s]", e.Field, e.Kind, strings.Join(ids, ", "))
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Kind)
	default:
		return string(e.Kind)
	}
}

// IsValidationKind reports whether err is a ValidationError of the given kind.
func IsValidationKind(err error, kind ValidationKind) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Kind == kind
}

// isUniqueViolation recognises duplicate-key failures from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

// notFound maps gorm's record-not-found onto ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
