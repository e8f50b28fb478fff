package storefront

import "sync"

// CartState is an immutable snapshot of the cart. The reducers below return new states
// and never modify their input.
type CartState struct {
	ID    string
	Lines []CartLine
}

// Quantity of productID in the cart, zero when absent
func (s CartState) Quantity(productID string) int {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// ItemCount is the total number of units in the cart
func (s CartState) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal prices the cart against catalog; lines whose product is unknown count as zero
func (s CartState) Subtotal(catalog *Catalog) float64 {
	total := 0.0
	for _, l := range s.Lines {
		if p, ok := catalog.Get(l.ProductID); ok {
			total += p.Price * float64(l.Quantity)
		}
	}
	return total
}

// AddLine adds delta units of productID, appending a line when absent.
// A line whose quantity drops to zero or below is removed.
func AddLine(s CartState, productID string, delta int) CartState {
	lines := make([]CartLine, 0, len(s.Lines)+1)
	found := false
	for _, l := range s.Lines {
		if l.ProductID == productID {
			found = true
			l.Quantity += delta
			if l.Quantity <= 0 {
				continue
			}
		}
		lines = append(lines, l)
	}
	if !found && delta > 0 {
		lines = append(lines, CartLine{ProductID: productID, Quantity: delta})
	}
	return CartState{ID: s.ID, Lines: lines}
}

// SetLine sets the quantity of an existing line, clamped to at least one.
// Absent lines are left alone.
func SetLine(s CartState, productID string, quantity int) CartState {
	lines := make([]CartLine, len(s.Lines))
	copy(lines, s.Lines)
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = clampQuantity(quantity)
		}
	}
	return CartState{ID: s.ID, Lines: lines}
}

// RemoveLine drops productID's line; removing an absent line returns an equal state
func RemoveLine(s CartState, productID string) CartState {
	lines := make([]CartLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.ProductID != productID {
			lines = append(lines, l)
		}
	}
	return CartState{ID: s.ID, Lines: lines}
}

// Container holds one state value and applies reducers to it atomically
type Container[S any] struct {
	mu    sync.Mutex
	state S
}

func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{state: initial}
}

func (c *Container[S]) Get() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Container[S]) Set(s S) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Update replaces the state with fn(state) and returns the previous state
func (c *Container[S]) Update(fn func(S) S) S {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = fn(prev)
	return prev
}
