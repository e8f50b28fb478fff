package storefront

import (
	"hash/fnv"
	"strings"
	"time"
)

// Product is the canonical client-side product
type Product struct {
	ID             string
	Title          string
	Description    string
	Price          float64
	CompareAtPrice *float64
	StoreID        string
	Category       string
	Brand          string
	Images         []string
	Stock          int
	InStock        bool
	Rating         float64
	RatingCount    int
}

// CartLine is one cart line keyed by product id
type CartLine struct {
	ProductID string
	Quantity  int
}

// OrderLine is an order line; title and price are the placement-time snapshot
type OrderLine struct {
	ProductID string
	Title     string
	Price     float64
	Quantity  int
	Image     string
}

// Order is the canonical client-side order
type Order struct {
	ID                  string
	BuyerID             string
	BuyerName           string
	BuyerEmail          string
	StoreID             string
	Lines               []OrderLine
	Total               float64
	Status              string
	PlacedAt            time.Time
	CheckoutCodeExpires *time.Time
}

// Order statuses as the API reports them
const (
	StatusUnconfirmed = "unconfirmed"
	StatusPending     = "pending"
	StatusDelivered   = "delivered"
	StatusCanceled    = "canceled"
)

var displayBrands = []string{
	"Atlas",
	"Boreal",
	"Cobalt",
	"Driftwood",
	"Ember",
	"Fable",
	"Granite",
	"Harbor",
}

// DisplayBrand picks a stable brand for products that have none.
// The same title and store always map to the same brand.
func DisplayBrand(title, storeID string) string {
	h := fnv.New32a()
	h.Write([]byte(storeID))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	return displayBrands[h.Sum32()%uint32(len(displayBrands))]
}

// NormalizeProduct converts an API product into the canonical shape
func NormalizeProduct(p ProductPayload) Product {
	inStock := p.Stock > 0
	if p.InStock != nil {
		inStock = *p.InStock
	}

	storeID := p.Store.ID()
	brand := strings.TrimSpace(p.Brand)
	if brand == "" {
		brand = DisplayBrand(p.Title, storeID)
	}

	return Product{
		ID:             p.Identity(),
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		StoreID:        storeID,
		Category:       p.Category,
		Brand:          brand,
		Images:         p.Images,
		Stock:          p.Stock,
		InStock:        inStock,
		Rating:         p.Rating.Value,
		RatingCount:    p.Rating.Count,
	}
}

// NormalizeCart converts an API cart into a CartState. Populated products are merged into catalog;
// lines without a resolvable product id are dropped and repeated ids are summed.
func NormalizeCart(p CartPayload, catalog *Catalog) CartState {
	state := CartState{ID: p.Identity()}
	for _, item := range p.Items {
		id := item.Product.ID()
		if id == "" {
			id = item.ProductID
		}
		if id == "" {
			continue
		}
		if v, ok := item.Product.Value(); ok {
			catalog.Upsert(NormalizeProduct(v))
		}
		state = AddLine(state, id, clampQuantity(item.Quantity))
	}
	return state
}

// NormalizeOrder converts an API order, merging any populated products into catalog
func NormalizeOrder(p OrderPayload, catalog *Catalog) Order {
	order := Order{
		ID:                  p.Identity(),
		BuyerID:             p.BuyerID,
		StoreID:             p.StoreID,
		Total:               p.Total,
		Status:              p.Status,
		PlacedAt:            p.PlacedAt,
		CheckoutCodeExpires: p.CheckoutCodeExpires,
		Lines:               make([]OrderLine, 0, len(p.Items)),
	}
	if p.Buyer != nil {
		order.BuyerName, order.BuyerEmail = p.Buyer.Name, p.Buyer.Email
	}

	for _, item := range p.Items {
		line := OrderLine{
			ProductID: item.Product.ID(),
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
		if v, ok := item.Product.Value(); ok {
			product := NormalizeProduct(v)
			catalog.Upsert(product)
			if line.Title == "" {
				line.Title = product.Title
			}
		}
		order.Lines = append(order.Lines, line)
	}
	return order
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
