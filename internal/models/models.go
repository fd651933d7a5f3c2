package models

import (
	"fmt"
	"time"
)

// Restaurant represents one candidate venue returned by the places search.
type Restaurant struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Rating      float64 `json:"rating"`
	CuisineType string  `json:"cuisine_type"`
	Phone       string  `json:"phone,omitempty"`
}

// Location is the canonical form of a user's free-text location.
type Location struct {
	Location    string `json:"location"`
	Coordinates string `json:"ll,omitempty"`
}

// MenuItem represents one parsed dish from a generated menu.
type MenuItem struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// ExtractedItem is one {item, quantity} pair produced by intent extraction.
// Quantity may be zero when the user did not specify one; callers default it
// to 1.
type ExtractedItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// OrderLine is one line item of a confirmed order.
type OrderLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderRecord is a completed order. Created once at confirmation and never
// mutated afterward.
type OrderRecord struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Restaurant string      `json:"restaurant"`
	Items      []OrderLine `json:"items"`
	Total      float64     `json:"total"`
	Timestamp  time.Time   `json:"timestamp"`
	Location   string      `json:"location"`
}

// UserProfile holds a user's accumulated preferences. The slices behave as
// insertion-ordered sets: updates union new values in, never replace.
type UserProfile struct {
	UserID              string   `json:"user_id"`
	PreferredCuisines   []string `json:"preferred_cuisines"`
	FavoriteRestaurants []string `json:"favorite_restaurants"`
}

// ValidateMenuItem validates a parsed menu item.
func ValidateMenuItem(item *MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("menu item price must not be negative")
	}
	return nil
}
