// Package knowledge holds the process-lifetime record of user preferences
// and completed orders. The store is volatile by design: nothing survives a
// restart.
package knowledge

import (
	"sync"

	"savor/internal/models"
)

// Store maps user ids to profiles and order ids to order records. Orders are
// append-only. The store may be shared across sessions, so all access is
// serialized internally.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*models.UserProfile
	orders map[string]models.OrderRecord
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]*models.UserProfile),
		orders: make(map[string]models.OrderRecord),
	}
}

// AddOrder appends a completed order. Records are never updated or deleted.
func (s *Store) AddOrder(rec models.OrderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[rec.OrderID] = rec
}

// Order returns the record for an order id.
func (s *Store) Order(id string) (models.OrderRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.orders[id]
	return rec, ok
}

// OrderCount returns the number of recorded orders.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// UpdatePreferences unions a cuisine and a restaurant into the user's
// preference sets, creating the profile if needed. Existing values are kept;
// insertion order is preserved.
func (s *Store) UpdatePreferences(userID, cuisine, restaurant string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.users[userID]
	if !ok {
		profile = &models.UserProfile{UserID: userID}
		s.users[userID] = profile
	}

	if cuisine != "" && !contains(profile.PreferredCuisines, cuisine) {
		profile.PreferredCuisines = append(profile.PreferredCuisines, cuisine)
	}
	if restaurant != "" && !contains(profile.FavoriteRestaurants, restaurant) {
		profile.FavoriteRestaurants = append(profile.FavoriteRestaurants, restaurant)
	}
}

// User returns a copy of the profile for a user id.
func (s *Store) User(userID string) (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.users[userID]
	if !ok {
		return models.UserProfile{}, false
	}
	out := models.UserProfile{
		UserID:              profile.UserID,
		PreferredCuisines:   append([]string(nil), profile.PreferredCuisines...),
		FavoriteRestaurants: append([]string(nil), profile.FavoriteRestaurants...),
	}
	return out, true
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
