package agent

import (
	"savor/internal/cart"
	"savor/internal/models"
)

// State is a stage of the conversation.
type State string

const (
	StateGreeting            State = "greeting"
	StateLocation            State = "location"
	StateFoodPreference      State = "food_preference"
	StateRestaurantSelection State = "restaurant_selection"
	StateOrdering            State = "ordering"
	StateConfirmation        State = "confirmation"
)

// Session is the sole mutable context of one conversation. It is owned by
// the agent's turn handler; callers must not process two turns of the same
// session concurrently.
type Session struct {
	ID     string
	UserID string
	State  State

	Location            string
	Cuisine             string
	SelectedRestaurant  string
	SelectedCuisineType string

	// Restaurants caches the last search results: up to five candidates
	// retained for selection matching, in engine rank order.
	Restaurants []models.Restaurant

	Cart *cart.Cart

	RawMenuText        string
	StructuredMenuText string
}

// NewSession creates a session at the greeting stage.
func NewSession(id, userID string) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		State:  StateGreeting,
		Cart:   cart.New(),
	}
}

// Reset returns the session to its initial values after a confirmed order.
// The id and user survive; everything else is cleared.
func (s *Session) Reset() {
	s.State = StateGreeting
	s.Location = ""
	s.Cuisine = ""
	s.SelectedRestaurant = ""
	s.SelectedCuisineType = ""
	s.Restaurants = nil
	s.Cart.Clear()
	s.RawMenuText = ""
	s.StructuredMenuText = ""
}
