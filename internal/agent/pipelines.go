package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"savor/internal/menu"
	"savor/internal/models"
	"savor/internal/textutil"
)

const (
	// addMatchThreshold is the minimum similarity for resolving an extracted
	// item against the menu; removeMatchThreshold is the stricter cutoff for
	// matching against cart lines.
	addMatchThreshold    = 0.5
	removeMatchThreshold = 0.6
)

// removeChunk scans "2 pizza"-style chunks: a run of digits directly
// followed by a word, or a bare word.
var removeChunk = regexp.MustCompile(`\d+\s*\w+|\w+`)

// addToCart runs the extraction-then-match pipeline: parse the structured
// menu, extract {item, quantity} intent from the message, resolve each item
// by normalized exact match, then by fuzzy match, and append every resolved
// pair as a new cart line.
func (a *Agent) addToCart(ctx context.Context, s *Session, message string) (string, error) {
	if s.SelectedRestaurant == "" {
		return "", fmt.Errorf("ordering without a selected restaurant")
	}

	menuItems := menu.Parse(s.StructuredMenuText, a.log)

	extracted, err := a.extractor.Extract(ctx, s.RawMenuText, message)
	if err != nil {
		// Extraction faults degrade to "nothing extracted"; the user gets
		// the menu again rather than an error.
		a.log.Warn("intent extraction failed", zap.Error(err))
		a.collector.RecordFault("intent_extractor")
		extracted = nil
	}

	lookup := make(map[string]models.MenuItem, len(menuItems))
	keys := make([]string, 0, len(menuItems))
	for _, item := range menuItems {
		key := textutil.Normalize(item.Name)
		if _, exists := lookup[key]; !exists {
			lookup[key] = item
			keys = append(keys, key)
		}
	}

	var added, unmatched []string
	for _, entry := range extracted {
		name := textutil.Normalize(entry.Item)
		item, ok := lookup[name]
		if !ok {
			if key, found := textutil.BestMatch(name, keys, addMatchThreshold); found {
				item = lookup[key]
				ok = true
			}
		}

		quantity := entry.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if ok {
			s.Cart.Add(item, quantity)
			added = append(added, fmt.Sprintf("%d x %s", quantity, item.Name))
		} else {
			// Report the user's original wording, not the normalized form.
			unmatched = append(unmatched, entry.Item)
		}
	}

	if len(added) == 0 {
		return fmt.Sprintf("🚫 None of those items were found on the menu. Here's the menu again:\n\n%s", s.RawMenuText), nil
	}

	reply := "🛒 Added to cart:\n- " + strings.Join(added, "\n- ") +
		fmt.Sprintf("\n\n%s\n\nWould you like to add more or checkout?", s.Cart.Summary(s.SelectedRestaurant))
	if len(unmatched) > 0 {
		reply += "\n\n🚫 The following items were not found on the menu and were not added to your cart:\n- " +
			strings.Join(unmatched, "\n- ")
	}
	return reply, nil
}

// removeFromCart tokenizes the message into (quantity, word) chunks and
// resolves each against cart lines: exact normalized match first (earliest
// line wins), then fuzzy. A matched quantity at or above the line's deletes
// the line; below it decrements.
func (a *Agent) removeFromCart(s *Session, lower string) string {
	var removed []string

	for _, chunk := range removeChunk.FindAllString(lower, -1) {
		parts := strings.Fields(chunk)
		if len(parts) == 0 {
			continue
		}

		quantity := 1
		word := parts[0]
		if len(parts) == 2 {
			if q, err := strconv.Atoi(parts[0]); err == nil {
				quantity = q
			}
			word = parts[1]
		}
		name := textutil.Normalize(word)

		lines := s.Cart.Lines()
		idx := -1
		for i, line := range lines {
			if textutil.Normalize(line.Item.Name) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			candidates := make([]string, len(lines))
			for i, line := range lines {
				candidates[i] = textutil.Normalize(line.Item.Name)
			}
			if key, found := textutil.BestMatch(name, candidates, removeMatchThreshold); found {
				for i, c := range candidates {
					if c == key {
						idx = i
						break
					}
				}
			}
		}
		if idx < 0 {
			continue
		}

		removed = append(removed, fmt.Sprintf("%d x %s", quantity, lines[idx].Item.Name))
		s.Cart.Remove(idx, quantity)
	}

	if len(removed) == 0 {
		return "⚠️ Couldn't find those items in your cart. Try using the item names as shown in the menu."
	}

	return "🗑️ Removed from cart:\n- " + strings.Join(removed, "\n- ") +
		fmt.Sprintf("\n\n%s\n\nWould you like to add more or checkout?", s.Cart.Summary(s.SelectedRestaurant))
}
