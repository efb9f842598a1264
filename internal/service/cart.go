package service

import (
	"sync"

	"github.com/nuv-canteen/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MenuItem is an orderable item as served by the menu catalog.
type MenuItem struct {
	Name     string
	Price    decimal.Decimal
	Category string
}

// LineItem is a single cart line. Duplicate labels are allowed; each add is
// an independent line.
type LineItem struct {
	Label string
	Price decimal.Decimal
}

// Fixed thali prices in the reference currency unit.
var (
	halfThaliPrice = decimal.NewFromInt(40)
	fullThaliPrice = decimal.NewFromInt(70)
)

// Cart holds the in-progress selection for one student session. Insertion
// order is preserved for display. Carries its own lock: concurrent requests
// from the same student mutate the cart while the session snapshots or
// clears it.
type Cart struct {
	mu    sync.Mutex
	items []LineItem
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem appends a line for the given menu item.
func (c *Cart) AddItem(item MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, LineItem{Label: item.Name, Price: item.Price})
}

// AddThali appends a synthesized set-meal line for the given option.
func (c *Cart) AddThali(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch option {
	case enum.ThaliOptionHalf:
		c.items = append(c.items, LineItem{Label: "Half Thali", Price: halfThaliPrice})
	case enum.ThaliOptionFull:
		c.items = append(c.items, LineItem{Label: "Full Thali", Price: fullThaliPrice})
	default:
		return ErrInvalidThaliOption
	}
	return nil
}

// RemoveByLabel removes every line whose label equals label. An absent label
// is a no-op, not an error.
func (c *Cart) RemoveByLabel(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var kept []LineItem
	for _, it := range c.items {
		if it.Label != label {
			kept = append(kept, it)
		}
	}
	c.items = kept
}

// Total sums the prices of the current lines. Always recomputed from the
// current contents, never cached.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Price)
	}
	return total
}

// Clear empties the cart. Called only after a successful finalize.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}
