// Package cart implements the running order cart. Adds are append-only:
// the same dish added twice produces two lines rather than a merged one, and
// removals walk lines in insertion order.
package cart

import (
	"fmt"
	"strings"

	"savor/internal/models"
)

// Line is one added-item record: a menu entry plus a quantity.
type Line struct {
	Item     models.MenuItem
	Quantity int
}

// Cart is an ordered sequence of lines.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add appends a new line. It never merges with an existing line for the
// same item.
func (c *Cart) Add(item models.MenuItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: quantity})
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Remove takes quantity units off the line at index i. If the requested
// quantity meets or exceeds the line's, the whole line is deleted.
func (c *Cart) Remove(i, quantity int) {
	if i < 0 || i >= len(c.lines) {
		return
	}
	if quantity >= c.lines[i].Quantity {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity -= quantity
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total computes sum(price * quantity) over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Item.Price * float64(l.Quantity)
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Summary renders the cart for the user, with per-line and grand totals.
func (c *Cart) Summary(restaurant string) string {
	if c.IsEmpty() {
		return "Your cart is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 Your Cart (%s):\n", restaurant)
	for _, l := range c.lines {
		lineTotal := l.Item.Price * float64(l.Quantity)
		fmt.Fprintf(&b, "- %dx %s: $%.2f\n", l.Quantity, l.Item.Name, lineTotal)
	}
	fmt.Fprintf(&b, "\n💰 Total: $%.2f", c.Total())

	return b.String()
}
