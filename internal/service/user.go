package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService serves user views and subscriptions.
type UserService struct {
	db      *gorm.DB
	follows *Follows
	logger  *zap.Logger
}

var _ IUserService = (*UserService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{db: db, follows: NewFollows(db), logger: logger}
}

// GetUser returns the public view of a user. IsSubscribed is false for
// anonymous viewers and for users looking at themselves.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID, viewer *uuid.UUID) (*types.UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	subscribed, err := s.follows.Exists(ctx, viewer, user.ID)
	if err != nil {
		return nil, err
	}
	view := types.NewUserView(&user, subscribed)
	return &view, nil
}

// ListUsers returns one page of users ordered by username.
func (s *UserService) ListUsers(ctx context.Context, page types.Page, viewer *uuid.UUID) (*types.UserPage, error) {
	page = page.Normalize()
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	if err := db.Order("username").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	following, err := s.follows.ExistsAmong(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	results := make([]types.UserView, len(users))
	for i := range users {
		results[i] = types.NewUserView(&users[i], following[users[i].ID])
	}
	return &types.UserPage{Count: count, Page: page.Number, Limit: page.Limit, Results: results}, nil
}

// Subscribe makes follower follow author and returns the author as seen
// from the subscriptions page.
func (s *UserService) Subscribe(ctx context.Context, follower, author uuid.UUID, recipesLimit int) (*types.SubscriptionView, error) {
	if _, err := s.follows.Add(ctx, follower, author); err != nil {
		return nil, err
	}
	s.logger.Info("subscribed",
		zap.String("follower_id", follower.String()),
		zap.String("author_id", author.String()))

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", author).Error; err != nil {
		return nil, notFound(err, "user")
	}
	views, err := s.subscriptionViews(ctx, []models.User{user}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the follow pair, failing with ErrNotFound when absent.
func (s *UserService) Unsubscribe(ctx context.Context, follower, author uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", author).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("user %s: %w", author, ErrNotFound)
	}
	return s.follows.Remove(ctx, follower, author)
}

// ListSubscriptions returns the authors followed by follower, each with up
// to recipesLimit of their newest recipes. A recipesLimit below one means no
// limit.
func (s *UserService) ListSubscriptions(ctx context.Context, follower uuid.UUID, page types.Page, recipesLimit int) (*types.SubscriptionPage, error) {
	page = page.Normalize()
	followed := s.follows.ObjectsOf(ctx, follower)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	var authors []models.User
	err := db.Where("id IN (?)", followed).
		Order("username").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	results, err := s.subscriptionViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &types.SubscriptionPage{Count: count, Page: page.Number, Limit: page.Limit, Results: results}, nil
}

// subscriptionViews builds views for authors the caller follows.
func (s *UserService) subscriptionViews(ctx context.Context, authors []models.User, recipesLimit int) ([]types.SubscriptionView, error) {
	views := make([]types.SubscriptionView, len(authors))
	if len(authors) == 0 {
		return views, nil
	}
	ids := make([]uuid.UUID, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	type countRow struct {
		AuthorID uuid.UUID
		Total    int64
	}
	var counts []countRow
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	totals := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		totals[c.AuthorID] = c.Total
	}

	for i := range authors {
		query := s.db.WithContext(ctx).
			Where("author_id = ?", authors[i].ID).
			Order("created_at DESC").
			Order("id")
		if recipesLimit > 0 {
			query = query.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := query.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}
		brief := make([]types.BriefRecipe, len(recipes))
		for j := range recipes {
			brief[j] = types.NewBriefRecipe(&recipes[j])
		}
		views[i] = types.SubscriptionView{
			UserView:     types.NewUserView(&authors[i], true),
			Recipes:      brief,
			RecipesCount: totals[authors[i].ID],
		}
	}
	return views, nil
}
