package storefront

import "sync"

// OrderBook keeps the orders the client has seen, in the order they were loaded
type OrderBook struct {
	mu    sync.RWMutex
	byID  map[string]Order
	order []string
}

func NewOrderBook() *OrderBook {
	return &OrderBook{byID: make(map[string]Order)}
}

// Replace discards the book and loads orders
func (b *OrderBook) Replace(orders []Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.byID = make(map[string]Order, len(orders))
	b.order = b.order[:0]
	for _, o := range orders {
		b.put(o)
	}
}

// Upsert adds or replaces one order. New orders go to the front.
func (b *OrderBook) Upsert(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byID[o.ID]; !exists && o.ID != "" {
		b.order = append([]string{o.ID}, b.order...)
	}
	if o.ID != "" {
		b.byID[o.ID] = o
	}
}

func (b *OrderBook) put(o Order) {
	if o.ID == "" {
		return
	}
	if _, exists := b.byID[o.ID]; !exists {
		b.order = append(b.order, o.ID)
	}
	b.byID[o.ID] = o
}

func (b *OrderBook) Get(id string) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.byID[id]
	return o, ok
}

// SetStatus changes an order's status and returns the previous one
func (b *OrderBook) SetStatus(id, status string) (prev string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.byID[id]
	if !ok {
		return "", false
	}
	prev = o.Status
	o.Status = status
	b.byID[id] = o
	return prev, true
}

func (b *OrderBook) All() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Order, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}
