// Package agent implements the conversation state machine that walks a user
// from greeting to a confirmed food order.
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"savor/internal/knowledge"
	"savor/internal/metrics"
	"savor/internal/models"
)

// DefaultUserID identifies conversations that carry no explicit user.
const DefaultUserID = "user_001"

var (
	cartKeywords     = []string{"cart", "show cart", "view cart"}
	addKeywords      = []string{"add", "want", "order"}
	removeKeywords   = []string{"remove", "delete"}
	checkoutKeywords = []string{"checkout", "done"}
)

// Agent dispatches each incoming message to the handler for the session's
// current state. Collaborators are injected once; the agent holds no
// per-conversation state of its own.
type Agent struct {
	locations LocationNormalizer
	search    RestaurantSearcher
	menus     MenuProvider
	extractor IntentExtractor

	store     *knowledge.Store
	collector *metrics.Collector
	log       *zap.Logger
}

func New(
	locations LocationNormalizer,
	search RestaurantSearcher,
	menus MenuProvider,
	extractor IntentExtractor,
	store *knowledge.Store,
	collector *metrics.Collector,
	log *zap.Logger,
) *Agent {
	return &Agent{
		locations: locations,
		search:    search,
		menus:     menus,
		extractor: extractor,
		store:     store,
		collector: collector,
		log:       log,
	}
}

// HandleMessage processes one turn: one inbound message, one reply. The
// conversation never crashes on a fault; an internal error produces an
// apology and sends the session back to the location stage so the user can
// rebuild context.
func (a *Agent) HandleMessage(ctx context.Context, s *Session, message string) string {
	start := time.Now()
	startState := s.State

	reply, err := a.handleTurn(ctx, s, message)
	if err != nil {
		a.log.Error("turn failed",
			zap.String("session", s.ID),
			zap.String("state", string(startState)),
			zap.Error(err))
		a.collector.RecordFault("turn")
		s.State = StateLocation
		reply = fmt.Sprintf("I apologize, but I encountered an error: %v. Let's start over - what's your location?", err)
	}

	a.collector.RecordTurn(string(startState), time.Since(start))
	return reply
}

func (a *Agent) handleTurn(ctx context.Context, s *Session, message string) (string, error) {
	lower := strings.ToLower(message)

	// Cart viewing works from any state and never advances it.
	if containsAny(lower, cartKeywords) {
		return s.Cart.Summary(s.SelectedRestaurant), nil
	}

	switch s.State {
	case StateGreeting:
		s.State = StateLocation
		return "Hello! Welcome to our food ordering service! I'm here to help you find and order delicious food. What's your location so I can find restaurants near you?", nil

	case StateLocation:
		return a.handleLocation(ctx, s, message), nil

	case StateFoodPreference:
		return a.handleFoodPreference(ctx, s, message), nil

	case StateRestaurantSelection:
		return a.handleSelection(ctx, s, message), nil

	case StateOrdering:
		return a.handleOrdering(ctx, s, message, lower)

	case StateConfirmation:
		return a.handleConfirmation(s, lower), nil

	default:
		s.State = StateGreeting
		return "I'm here to help you order food! Would you like to start a new order?", nil
	}
}

func (a *Agent) handleLocation(ctx context.Context, s *Session, message string) string {
	raw := strings.TrimSpace(message)

	loc, err := a.locations.Normalize(ctx, raw)
	if err != nil {
		// Normalization failure is never fatal: fall back to the raw input
		// and advance anyway.
		a.log.Warn("location normalization failed", zap.String("raw", raw), zap.Error(err))
		a.collector.RecordFault("location_normalizer")
		s.Location = titleCase(raw)
		s.State = StateFoodPreference
		return fmt.Sprintf("Okay, I've set your location to %s. Now tell me what you're craving!", s.Location)
	}

	s.Location = loc.Location
	s.State = StateFoodPreference
	return fmt.Sprintf("Great! I've set your location to %s. What type of food are you craving today? (e.g., pizza, burgers, sushi, etc.)", s.Location)
}

func (a *Agent) handleFoodPreference(ctx context.Context, s *Session, message string) string {
	s.Cuisine = strings.TrimSpace(message)
	s.State = StateRestaurantSelection

	restaurants, err := a.search.Search(ctx, s.Location, s.Cuisine)
	if err != nil {
		a.log.Warn("restaurant search failed",
			zap.String("location", s.Location),
			zap.String("cuisine", s.Cuisine),
			zap.Error(err))
		a.collector.RecordFault("restaurant_search")
		s.Restaurants = nil
		return fmt.Sprintf("⚠️ Error searching for restaurants near %s.", s.Location)
	}

	s.Restaurants = restaurants
	if len(restaurants) == 0 {
		return fmt.Sprintf("❌ No '%s' restaurants found near %s.", s.Cuisine, s.Location)
	}

	return formatRestaurants(restaurants, s.Location, s.Cuisine) +
		"\nWhich restaurant would you like to order from? Just tell me the name or number."
}

func (a *Agent) handleSelection(ctx context.Context, s *Session, message string) string {
	selection := strings.ToLower(strings.TrimSpace(message))

	idx := matchRestaurant(selection, s.Restaurants)
	if idx < 0 {
		return "I didn't catch that. Please select one of the restaurants listed above."
	}

	chosen := s.Restaurants[idx]
	s.SelectedRestaurant = chosen.Name
	s.SelectedCuisineType = chosen.CuisineType

	formatted, structured, err := a.menus.Menu(ctx, chosen.Name, chosen.CuisineType)
	if err != nil {
		// Degraded: the apology stands in for the menu, the turn survives.
		a.log.Warn("menu generation failed", zap.String("restaurant", chosen.Name), zap.Error(err))
		a.collector.RecordFault("menu_generator")
		formatted = "Sorry, I couldn't generate the menu at the moment. Please try again later."
		structured = ""
	}
	s.RawMenuText = formatted
	s.StructuredMenuText = structured
	s.State = StateOrdering

	return fmt.Sprintf("Excellent choice! Here's the menu for %s:\n\n%s\n\nWhat would you like to add to your cart? You can say something like 'Add 2 Margherita Pizza' or 'I want the Caesar Salad'.", chosen.Name, formatted)
}

func (a *Agent) handleOrdering(ctx context.Context, s *Session, message, lower string) (string, error) {
	switch {
	case containsAny(lower, addKeywords):
		return a.addToCart(ctx, s, message)

	case containsAny(lower, removeKeywords):
		return a.removeFromCart(s, lower), nil

	case containsAny(lower, checkoutKeywords):
		if s.Cart.IsEmpty() {
			return "Your cart is empty. Please add some items first!", nil
		}
		s.State = StateConfirmation
		return fmt.Sprintf("Perfect! Here's your order summary:\n\n%s\n\nWould you like to confirm this order? (yes/no)", s.Cart.Summary(s.SelectedRestaurant)), nil

	default:
		return "I can help you add items to your cart. Try saying 'Add [item name]' or 'checkout' when you're ready.", nil
	}
}

func (a *Agent) handleConfirmation(s *Session, lower string) string {
	if !strings.Contains(lower, "yes") {
		s.State = StateOrdering
		return "No problem! You can continue adding items or modify your order. What would you like to do?"
	}

	rec := a.finalizeOrder(s)
	reply := fmt.Sprintf("🎉 Order confirmed! Your order #%s has been placed successfully.\n\nDelivery time: 30-45 minutes\nRestaurant: %s\nTotal: $%.2f\n\nThank you for your order! You'll receive updates via SMS.", rec.OrderID, rec.Restaurant, rec.Total)
	s.Reset()
	return reply
}

// finalizeOrder mints the order record, appends it to the knowledge store
// and unions the user's preferences.
func (a *Agent) finalizeOrder(s *Session) models.OrderRecord {
	now := time.Now()
	rec := models.OrderRecord{
		OrderID:    fmt.Sprintf("ORD%s-%s", now.Format("20060102150405"), uuid.NewString()[:8]),
		UserID:     s.UserID,
		Restaurant: s.SelectedRestaurant,
		Total:      s.Cart.Total(),
		Timestamp:  now,
		Location:   s.Location,
	}
	for _, line := range s.Cart.Lines() {
		rec.Items = append(rec.Items, models.OrderLine{
			Name:     line.Item.Name,
			Quantity: line.Quantity,
			Price:    line.Item.Price,
		})
	}

	a.store.AddOrder(rec)

	cuisine := s.SelectedCuisineType
	if cuisine == "" {
		cuisine = s.Cuisine
	}
	a.store.UpdatePreferences(s.UserID, cuisine, s.SelectedRestaurant)

	a.collector.RecordOrder(rec.Total)
	a.log.Info("order confirmed",
		zap.String("order_id", rec.OrderID),
		zap.String("restaurant", rec.Restaurant),
		zap.Float64("total", rec.Total))
	return rec
}

// matchRestaurant resolves a selection against the ranked candidates: an
// exact 1-based index first, then the first candidate whose lowercased name
// contains the selection. Selections shorter than two runes never match by
// name, which cuts the worst accidental substring hits.
func matchRestaurant(selection string, restaurants []models.Restaurant) int {
	if selection == "" {
		return -1
	}
	for i, r := range restaurants {
		if strconv.Itoa(i+1) == selection {
			return i
		}
		if utf8.RuneCountInString(selection) >= 2 &&
			strings.Contains(strings.ToLower(r.Name), selection) {
			return i
		}
	}
	return -1
}

func formatRestaurants(restaurants []models.Restaurant, location, cuisine string) string {
	shown := len(restaurants)
	if shown > 3 {
		shown = 3
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ Top %d restaurants found for '%s' in %s:\n\n", shown, cuisine, location)
	for i, r := range restaurants[:shown] {
		stars := "No rating"
		if r.Rating > 0 {
			stars = strings.Repeat("⭐", int(r.Rating))
		}
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, r.Name)
		fmt.Fprintf(&b, "   📍 %s\n", r.Address)
		fmt.Fprintf(&b, "   🍴 %s\n", r.CuisineType)
		fmt.Fprintf(&b, "   %s (%.1f/5)\n\n", stars, r.Rating)
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
