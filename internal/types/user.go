package types

import (
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
)

// UserView is the public view of a user
type UserView struct {
	Email        string    `json:"email"`
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// NewUserView builds the public view of u with the given subscription flag
func NewUserView(u *models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// SubscriptionView is an author as seen from the subscriptions page
type SubscriptionView struct {
	UserView
	Recipes      []BriefRecipe `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// UserPage is one page of user views
type UserPage struct {
	Count   int64      `json:"count"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	Results []UserView `json:"results"`
}

// SubscriptionPage is one page of subscriptions
type SubscriptionPage struct {
	Count   int64              `json:"count"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Results []SubscriptionView `json:"results"`
}
