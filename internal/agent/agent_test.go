package agent

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"savor/internal/knowledge"
	"savor/internal/metrics"
	"savor/internal/models"
)

const structuredMenu = "Margherita Pizza | $12.99 | Main Course | Classic tomato, mozzarella, basil.\n" +
	"Caesar Salad | $8.50 | Appetizer | Romaine, parmesan, croutons."

type fakeLocations struct {
	loc models.Location
	err error
}

func (f *fakeLocations) Normalize(ctx context.Context, raw string) (models.Location, error) {
	return f.loc, f.err
}

type fakeSearch struct {
	restaurants []models.Restaurant
	err         error
}

func (f *fakeSearch) Search(ctx context.Context, location, cuisine string) ([]models.Restaurant, error) {
	return f.restaurants, f.err
}

type fakeMenus struct {
	formatted  string
	structured string
	err        error
}

func (f *fakeMenus) Menu(ctx context.Context, restaurant, cuisineType string) (string, string, error) {
	return f.formatted, f.structured, f.err
}

type fakeExtractor struct {
	items []models.ExtractedItem
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, menuText, message string) ([]models.ExtractedItem, error) {
	return f.items, f.err
}

type testEnv struct {
	agent     *Agent
	store     *knowledge.Store
	locations *fakeLocations
	search    *fakeSearch
	menus     *fakeMenus
	extractor *fakeExtractor
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store: knowledge.NewStore(),
		locations: &fakeLocations{
			loc: models.Location{Location: "Bengaluru, India", Coordinates: "12.97,77.59"},
		},
		search: &fakeSearch{
			restaurants: []models.Restaurant{
				{Name: "Chianti's", Address: "1 MG Road", Rating: 4.5, CuisineType: "pizza"},
				{Name: "Slice House", Address: "2 Church St", Rating: 4.1, CuisineType: "pizza"},
			},
		},
		menus: &fakeMenus{
			formatted:  "🍽️ Menu for Chianti's",
			structured: structuredMenu,
		},
		extractor: &fakeExtractor{},
	}
	env.agent = New(env.locations, env.search, env.menus, env.extractor,
		env.store, metrics.NewCollector(), zap.NewNop())
	return env
}

// advance drives a fresh session to the ordering state with the fake menu
// loaded.
func (env *testEnv) advanceToOrdering(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	s := NewSession("sess-1", DefaultUserID)

	env.agent.HandleMessage(ctx, s, "hi")
	env.agent.HandleMessage(ctx, s, "Bengaluru")
	env.agent.HandleMessage(ctx, s, "pizza")
	env.agent.HandleMessage(ctx, s, "1")

	if s.State != StateOrdering {
		t.Fatalf("expected ordering state, got %s", s.State)
	}
	return s
}

func TestGreetingAdvancesToLocation(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)

	reply := env.agent.HandleMessage(context.Background(), s, "hello there")

	if s.State != StateLocation {
		t.Errorf("State = %s, want %s", s.State, StateLocation)
	}
	if !strings.Contains(reply, "location") {
		t.Errorf("greeting reply should ask for location: %q", reply)
	}
}

func TestLocationNormalized(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateLocation

	env.agent.HandleMessage(context.Background(), s, "blr")

	if s.Location != "Bengaluru, India" {
		t.Errorf("Location = %q, want normalized form", s.Location)
	}
	if s.State != StateFoodPreference {
		t.Errorf("State = %s, want %s", s.State, StateFoodPreference)
	}
}

func TestLocationFallbackStillAdvances(t *testing.T) {
	env := newTestEnv()
	env.locations.err = errors.New("llm unavailable")
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateLocation

	env.agent.HandleMessage(context.Background(), s, "bengaluru city")

	if s.Location != "Bengaluru City" {
		t.Errorf("Location = %q, want title-cased fallback", s.Location)
	}
	if s.State != StateFoodPreference {
		t.Errorf("State = %s, want %s (fallback must advance)", s.State, StateFoodPreference)
	}
}

func TestFoodPreferenceListsRestaurants(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateFoodPreference
	s.Location = "Bengaluru"

	reply := env.agent.HandleMessage(context.Background(), s, "pizza")

	if s.State != StateRestaurantSelection {
		t.Errorf("State = %s, want %s", s.State, StateRestaurantSelection)
	}
	if !strings.Contains(reply, "Chianti's") || !strings.Contains(reply, "Slice House") {
		t.Errorf("reply missing ranked restaurants:\n%s", reply)
	}
	if len(s.Restaurants) != 2 {
		t.Errorf("Restaurants cached = %d, want 2", len(s.Restaurants))
	}
}

func TestEmptySearchIsReportedAndAdvances(t *testing.T) {
	env := newTestEnv()
	env.search.restaurants = nil
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateFoodPreference
	s.Location = "Nowhere"

	reply := env.agent.HandleMessage(context.Background(), s, "sushi")

	if !strings.Contains(reply, "No 'sushi' restaurants found") {
		t.Errorf("reply = %q", reply)
	}
	if s.State != StateRestaurantSelection {
		t.Errorf("State = %s, want %s", s.State, StateRestaurantSelection)
	}
}

func TestSelectionByIndexAndName(t *testing.T) {
	tests := []struct {
		selection string
		want      string
	}{
		{"1", "Chianti's"},
		{"2", "Slice House"},
		{"chianti", "Chianti's"},
		{"slice", "Slice House"},
	}

	for _, tt := range tests {
		env := newTestEnv()
		s := NewSession("sess-1", DefaultUserID)
		s.State = StateRestaurantSelection
		s.Restaurants = env.search.restaurants

		env.agent.HandleMessage(context.Background(), s, tt.selection)

		if s.SelectedRestaurant != tt.want {
			t.Errorf("selection %q picked %q, want %q", tt.selection, s.SelectedRestaurant, tt.want)
		}
		if s.State != StateOrdering {
			t.Errorf("selection %q: State = %s, want %s", tt.selection, s.State, StateOrdering)
		}
	}
}

func TestSelectionNoMatchStays(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateRestaurantSelection
	s.Restaurants = env.search.restaurants

	reply := env.agent.HandleMessage(context.Background(), s, "the moon diner")

	if s.State != StateRestaurantSelection {
		t.Errorf("State = %s, want unchanged selection state", s.State)
	}
	if !strings.Contains(reply, "didn't catch that") {
		t.Errorf("reply = %q", reply)
	}
}

func TestMenuFaultDegradesButAdvances(t *testing.T) {
	env := newTestEnv()
	env.menus.err = errors.New("llm down")
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateRestaurantSelection
	s.Restaurants = env.search.restaurants

	reply := env.agent.HandleMessage(context.Background(), s, "1")

	if s.State != StateOrdering {
		t.Errorf("State = %s, want %s", s.State, StateOrdering)
	}
	if !strings.Contains(reply, "couldn't generate the menu") {
		t.Errorf("reply = %q", reply)
	}
}

func TestAddExactMatch(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margherita pizza", Quantity: 2}}
	s := env.advanceToOrdering(t)

	reply := env.agent.HandleMessage(context.Background(), s, "Add 2 Margherita Pizza")

	lines := s.Cart.Lines()
	if len(lines) != 1 || lines[0].Item.Name != "Margherita Pizza" || lines[0].Quantity != 2 {
		t.Fatalf("cart = %+v", lines)
	}
	if got := s.Cart.Total(); math.Abs(got-25.98) > 1e-9 {
		t.Errorf("Total = %v, want 25.98", got)
	}
	if !strings.Contains(reply, "2 x Margherita Pizza") {
		t.Errorf("reply = %q", reply)
	}
}

func TestAddFuzzyMatch(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margarita piza", Quantity: 1}}
	s := env.advanceToOrdering(t)

	env.agent.HandleMessage(context.Background(), s, "I want a margarita piza")

	lines := s.Cart.Lines()
	if len(lines) != 1 || lines[0].Item.Name != "Margherita Pizza" {
		t.Fatalf("fuzzy match failed, cart = %+v", lines)
	}
}

func TestAddUnmatchedReportedVerbatim(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{
		{Item: "margherita pizza", Quantity: 1},
		{Item: "Dragon Sushi Deluxe", Quantity: 1},
	}
	s := env.advanceToOrdering(t)

	reply := env.agent.HandleMessage(context.Background(), s, "add margherita pizza and dragon sushi deluxe")

	if s.Cart.Len() != 1 {
		t.Errorf("cart should only hold the matched item, got %d lines", s.Cart.Len())
	}
	if !strings.Contains(reply, "Dragon Sushi Deluxe") {
		t.Errorf("unmatched item should be reported with its original name: %q", reply)
	}
}

func TestAddNothingMatchedReshowsMenu(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = nil
	s := env.advanceToOrdering(t)

	reply := env.agent.HandleMessage(context.Background(), s, "add a unicorn steak")

	if !strings.Contains(reply, "None of those items were found") {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(reply, env.menus.formatted) {
		t.Error("reply should re-show the full menu")
	}
}

func TestAddQuantityDefaultsToOne(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "caesar salad"}}
	s := env.advanceToOrdering(t)

	env.agent.HandleMessage(context.Background(), s, "I want the caesar salad")

	if lines := s.Cart.Lines(); lines[0].Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", lines[0].Quantity)
	}
}

func TestAddSameItemTwiceKeepsSeparateLines(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margherita pizza", Quantity: 1}}
	s := env.advanceToOrdering(t)

	env.agent.HandleMessage(context.Background(), s, "add margherita pizza")
	env.agent.HandleMessage(context.Background(), s, "add margherita pizza")

	if s.Cart.Len() != 2 {
		t.Errorf("cart has %d lines, want 2 unmerged lines", s.Cart.Len())
	}
}

func TestRemoveDecrementThenDelete(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margherita pizza", Quantity: 3}}
	s := env.advanceToOrdering(t)
	env.agent.HandleMessage(context.Background(), s, "add 3 margherita pizza")

	env.agent.HandleMessage(context.Background(), s, "remove 1 margherita pizza")
	lines := s.Cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("after removing 1 of 3: cart = %+v", lines)
	}

	env.agent.HandleMessage(context.Background(), s, "remove 5 margherita pizza")
	if !s.Cart.IsEmpty() {
		t.Error("removing at least the line quantity should delete the line")
	}
}

func TestRemoveNothingFoundReportsFailure(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "caesar salad", Quantity: 1}}
	s := env.advanceToOrdering(t)
	env.agent.HandleMessage(context.Background(), s, "add caesar salad")

	reply := env.agent.HandleMessage(context.Background(), s, "remove the flux capacitor")

	if !strings.Contains(reply, "Couldn't find those items") {
		t.Errorf("reply = %q", reply)
	}
	if s.Cart.Len() != 1 {
		t.Error("failed removal must leave the cart untouched")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv()
	s := env.advanceToOrdering(t)

	reply := env.agent.HandleMessage(context.Background(), s, "checkout")

	if s.State != StateOrdering {
		t.Errorf("State = %s, want ordering to hold with an empty cart", s.State)
	}
	if !strings.Contains(reply, "cart is empty") {
		t.Errorf("reply = %q", reply)
	}
}

func TestConfirmationNoReturnsToOrdering(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margherita pizza", Quantity: 2}}
	s := env.advanceToOrdering(t)
	env.agent.HandleMessage(context.Background(), s, "add 2 margherita pizza")
	env.agent.HandleMessage(context.Background(), s, "checkout")

	if s.State != StateConfirmation {
		t.Fatalf("State = %s, want %s", s.State, StateConfirmation)
	}

	env.agent.HandleMessage(context.Background(), s, "no thanks")

	if s.State != StateOrdering {
		t.Errorf("State = %s, want %s", s.State, StateOrdering)
	}
	if s.Cart.Len() != 1 {
		t.Error("declining confirmation must leave the cart untouched")
	}
}

func TestCartOverridePrecedesDispatch(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateLocation

	reply := env.agent.HandleMessage(context.Background(), s, "show cart")

	if reply != "Your cart is empty." {
		t.Errorf("reply = %q", reply)
	}
	if s.State != StateLocation {
		t.Errorf("cart view must not advance state, got %s", s.State)
	}
}

func TestUnknownStateResetsToGreeting(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = State("warp_drive")

	reply := env.agent.HandleMessage(context.Background(), s, "help")

	if s.State != StateGreeting {
		t.Errorf("State = %s, want %s", s.State, StateGreeting)
	}
	if !strings.Contains(reply, "start a new order") {
		t.Errorf("reply = %q", reply)
	}
}

func TestInternalFaultApologizesAndReturnsToLocation(t *testing.T) {
	env := newTestEnv()
	s := NewSession("sess-1", DefaultUserID)
	s.State = StateOrdering // no restaurant ever selected

	reply := env.agent.HandleMessage(context.Background(), s, "add pizza")

	if !strings.Contains(reply, "I apologize") {
		t.Errorf("reply = %q", reply)
	}
	if s.State != StateLocation {
		t.Errorf("State = %s, want %s after an internal fault", s.State, StateLocation)
	}
}

func TestEndToEndOrder(t *testing.T) {
	env := newTestEnv()
	env.extractor.items = []models.ExtractedItem{{Item: "margherita pizza", Quantity: 2}}
	ctx := context.Background()
	s := NewSession("sess-1", DefaultUserID)

	env.agent.HandleMessage(ctx, s, "hi")
	env.agent.HandleMessage(ctx, s, "Bengaluru")
	env.agent.HandleMessage(ctx, s, "pizza")
	env.agent.HandleMessage(ctx, s, "1")
	env.agent.HandleMessage(ctx, s, "Add 2 Margherita Pizza")
	env.agent.HandleMessage(ctx, s, "checkout")
	reply := env.agent.HandleMessage(ctx, s, "yes")

	if !strings.Contains(reply, "Order confirmed") {
		t.Fatalf("reply = %q", reply)
	}
	if env.store.OrderCount() != 1 {
		t.Fatalf("OrderCount = %d, want exactly 1", env.store.OrderCount())
	}

	g := env.store.Graph()
	var rec models.OrderRecord
	for _, n := range g.Nodes {
		if n.Kind == "order" {
			rec, _ = env.store.Order(n.ID)
		}
	}
	if math.Abs(rec.Total-25.98) > 1e-9 {
		t.Errorf("order total = %v, want 25.98", rec.Total)
	}
	if rec.Restaurant != "Chianti's" {
		t.Errorf("order restaurant = %q", rec.Restaurant)
	}

	profile, ok := env.store.User(DefaultUserID)
	if !ok {
		t.Fatal("preferences not saved")
	}
	if len(profile.PreferredCuisines) != 1 || profile.PreferredCuisines[0] != "pizza" {
		t.Errorf("PreferredCuisines = %v", profile.PreferredCuisines)
	}
	if len(profile.FavoriteRestaurants) != 1 || profile.FavoriteRestaurants[0] != "Chianti's" {
		t.Errorf("FavoriteRestaurants = %v", profile.FavoriteRestaurants)
	}

	if s.State != StateGreeting {
		t.Errorf("State = %s, want reset to %s", s.State, StateGreeting)
	}
	if !s.Cart.IsEmpty() || s.Cart.Total() != 0 {
		t.Error("cart must be emptied after confirmation")
	}
	if s.Location != "" || s.SelectedRestaurant != "" {
		t.Error("session fields must be cleared after confirmation")
	}
}
