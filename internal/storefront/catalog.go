package storefront

import (
	"context"
	"sync"
)

// Catalog is the shared id to product map behind the cart, favorites and order views.
// Upserts replace the stored product; iteration follows first-insertion order.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]Product
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]Product)}
}

// Upsert stores products, last write wins per id. Products without an id are ignored.
func (c *Catalog) Upsert(products ...Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, exists := c.byID[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
}

func (c *Catalog) Get(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Lookup returns the products for ids that are known, in the order given
func (c *Catalog) Lookup(ids []string) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) All() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// FetchProducts loads one catalog page and merges it into catalog
func FetchProducts(ctx context.Context, api CatalogAPI, catalog *Catalog, q ProductQuery) ([]Product, int64, error) {
	page, err := api.Products(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	products := make([]Product, 0, len(page.Items))
	for _, p := range page.Items {
		products = append(products, NormalizeProduct(p))
	}
	catalog.Upsert(products...)
	return products, page.Total, nil
}
