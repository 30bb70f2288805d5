package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// RelationSet is a unique (subject, object) join table such as favorites,
// the shopping cart or follows. Uniqueness is enforced by the table's unique
// index; the existence pre-check only spares the database a failing insert.
type RelationSet[E any] struct {
	db            *gorm.DB
	name          string
	subjectColumn string
	objectColumn  string
	objectTable   string
	newEntry      func(subject, object uuid.UUID) *E
}

// NewFavorites returns the favorites relation (user, recipe).
func NewFavorites(db *gorm.DB) *RelationSet[models.Favorite] {
	return &RelationSet[models.Favorite]{
		db:            db,
		name:          "favorite",
		subjectColumn: "user_id",
		objectColumn:  "recipe_id",
		objectTable:   "recipes",
		newEntry: func(subject, object uuid.UUID) *models.Favorite {
			return &models.Favorite{UserID: subject, RecipeID: object}
		},
	}
}

// NewShoppingCart returns the shopping cart relation (user, recipe).
func NewShoppingCart(db *gorm.DB) *RelationSet[models.ShoppingCartItem] {
	return &RelationSet[models.ShoppingCartItem]{
		db:            db,
		name:          "shopping cart entry",
		subjectColumn: "user_id",
		objectColumn:  "recipe_id",
		objectTable:   "recipes",
		newEntry: func(subject, object uuid.UUID) *models.ShoppingCartItem {
			return &models.ShoppingCartItem{UserID: subject, RecipeID: object}
		},
	}
}

// NewFollowSet returns the raw follow relation (follower, author). Use
// Follows for the self-follow rule.
func NewFollowSet(db *gorm.DB) *RelationSet[models.Follow] {
	return &RelationSet[models.Follow]{
		db:            db,
		name:          "subscription",
		subjectColumn: "follower_id",
		objectColumn:  "following_id",
		objectTable:   "users",
		newEntry: func(subject, object uuid.UUID) *models.Follow {
			return &models.Follow{FollowerID: subject, FollowingID: object}
		},
	}
}

// Add stores the pair. It fails with ErrNotFound when the object does not
// exist and with ErrAlreadyExists when the pair is already stored, whether
// the pre-check or the unique index caught it.
func (r *RelationSet[E]) Add(ctx context.Context, subject, object uuid.UUID) (*E, error) {
	db := r.db.WithContext(ctx)

	var objects int64
	if err := db.Table(r.objectTable).Where("id = ?", object).Count(&objects).Error; err != nil {
		return nil, fmt.Errorf("failed to check %s target: %w", r.name, err)
	}
	if objects == 0 {
		return nil, fmt.Errorf("%s target %s: %w", r.name, object, ErrNotFound)
	}

	exists, err := r.Exists(ctx, &subject, object)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", r.name, ErrAlreadyExists)
	}

	entry := r.newEntry(subject, object)
	if err := db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", r.name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to add %s: %w", r.name, err)
	}
	return entry, nil
}

// Remove deletes the pair, failing with ErrNotFound when it is absent.
func (r *RelationSet[E]) Remove(ctx context.Context, subject, object uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where(r.subjectColumn+" = ? AND "+r.objectColumn+" = ?", subject, object).
		Delete(new(E))
	if result.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", r.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", r.name, ErrNotFound)
	}
	return nil
}

// Exists reports whether the pair is stored. A nil subject is an anonymous
// viewer and yields false without a query.
func (r *RelationSet[E]) Exists(ctx context.Context, subject *uuid.UUID, object uuid.UUID) (bool, error) {
	if subject == nil {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(new(E)).
		Where(r.subjectColumn+" = ? AND "+r.objectColumn+" = ?", *subject, object).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", r.name, err)
	}
	return count > 0, nil
}

// ExistsAmong returns the subset of objects paired with subject, in one
// query. A nil subject yields an empty set without a query.
func (r *RelationSet[E]) ExistsAmong(ctx context.Context, subject *uuid.UUID, objects []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool)
	if subject == nil || len(objects) == 0 {
		return set, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(new(E)).
		Where(r.subjectColumn+" = ? AND "+r.objectColumn+" IN ?", *subject, objects).
		Pluck(r.objectColumn, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", r.name, err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ObjectsOf returns a subquery selecting the objects paired with subject,
// suitable for "id IN (?)" filters.
func (r *RelationSet[E]) ObjectsOf(ctx context.Context, subject uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(E)).
		Select(r.objectColumn).
		Where(r.subjectColumn+" = ?", subject)
}

// Follows wraps the follow relation with the self-follow rule.
type Follows struct {
	*RelationSet[models.Follow]
}

// NewFollows creates the follow relation set.
func NewFollows(db *gorm.DB) *Follows {
	return &Follows{RelationSet: NewFollowSet(db)}
}

// Add subscribes follower to author.
func (f *Follows) Add(ctx context.Context, follower, author uuid.UUID) (*models.Follow, error) {
	if follower == author {
		return nil, &ValidationError{Kind: SelfFollow, Field: "author"}
	}
	return f.RelationSet.Add(ctx, follower, author)
}
