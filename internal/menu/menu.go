// Package menu parses and formats the pipe-delimited menu grammar produced
// by the menu generator: one dish per line, "name | price | category |
// description".
package menu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"savor/internal/models"
)

var bulletPrefix = regexp.MustCompile(`^[•\-\d. ]+`)

// Parse converts a structured menu text block into MenuItems. Header rows
// and rows without exactly three separators are skipped; a row whose price
// does not parse is dropped with a warning. Parsing never aborts part-way:
// every remaining row still gets its chance. Order of appearance is
// preserved and duplicates are kept.
func Parse(structured string, log *zap.Logger) []models.MenuItem {
	var items []models.MenuItem

	for _, line := range strings.Split(structured, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "dish name") {
			continue
		}
		if strings.Count(line, "|") != 3 {
			continue
		}

		parts := strings.Split(line, "|")
		name := bulletPrefix.ReplaceAllString(strings.TrimSpace(parts[0]), "")
		price, err := parsePrice(parts[1])
		if err != nil {
			log.Warn("dropping unparseable menu row",
				zap.String("line", line),
				zap.Error(err))
			continue
		}

		item := models.MenuItem{
			Name:        name,
			Price:       price,
			Category:    strings.TrimSpace(parts[2]),
			Description: strings.TrimSpace(parts[3]),
		}
		if err := models.ValidateMenuItem(&item); err != nil {
			log.Warn("dropping invalid menu row",
				zap.String("line", line),
				zap.Error(err))
			continue
		}

		items = append(items, item)
	}

	return items
}

func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "$€£₹")
	s = strings.TrimSpace(s)
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return price, nil
}

// Format renders structured menu text as the human-readable menu shown to
// the user, grouped by category in order of first appearance.
func Format(structured, restaurantName string, log *zap.Logger) string {
	items := Parse(structured, log)

	var categories []string
	byCategory := make(map[string][]models.MenuItem)
	for _, item := range items {
		if _, seen := byCategory[item.Category]; !seen {
			categories = append(categories, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ Menu for %s:\n\n", restaurantName)
	for _, cat := range categories {
		fmt.Fprintf(&b, "📂 %s\n", cat)
		for _, item := range byCategory[cat] {
			fmt.Fprintf(&b, "   • %s - $%.2f\n", item.Name, item.Price)
			fmt.Fprintf(&b, "     %s\n\n", item.Description)
		}
	}
	b.WriteString("💡 To add items to your cart, say something like:\n")
	b.WriteString("   'Add 2 Margherita Pizza' or 'I want the Caesar Salad'")

	return b.String()
}
