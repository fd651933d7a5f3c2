package agent

import (
	"context"

	"savor/internal/models"
)

// The agent talks to its external collaborators through these narrow
// contracts, injected once at construction. Tests substitute deterministic
// fakes.

// LocationNormalizer turns messy free-text location input into a canonical
// location. Faults are non-fatal: the caller falls back to the raw input.
type LocationNormalizer interface {
	Normalize(ctx context.Context, raw string) (models.Location, error)
}

// RestaurantSearcher finds candidate restaurants near a location. An empty
// result is a valid, reportable outcome.
type RestaurantSearcher interface {
	Search(ctx context.Context, location, cuisine string) ([]models.Restaurant, error)
}

// MenuProvider produces both the human-readable menu and the structured
// pipe-delimited block for a restaurant.
type MenuProvider interface {
	Menu(ctx context.Context, restaurant, cuisineType string) (formatted, structured string, err error)
}

// IntentExtractor pulls {item, quantity} pairs out of a free-text order
// message. A malformed model response yields an empty slice, not an error.
type IntentExtractor interface {
	Extract(ctx context.Context, menuText, message string) ([]models.ExtractedItem, error)
}
