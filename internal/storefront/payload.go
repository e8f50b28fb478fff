package storefront

import "time"

// docID accepts both the API's "id" and a raw document "_id"
type docID struct {
	ID      string `json:"id,omitempty"`
	MongoID string `json:"_id,omitempty"`
}

func (d docID) Identity() string {
	if d.ID != "" {
		return d.ID
	}
	return d.MongoID
}

// StorePayload is a store as the API returns it
type StorePayload struct {
	docID
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RatingPayload is a product's aggregate rating
type RatingPayload struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ProductPayload is a product as the API returns it
type ProductPayload struct {
	docID
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Price          float64           `json:"price"`
	CompareAtPrice *float64          `json:"compareAtPrice,omitempty"`
	Store          Ref[StorePayload] `json:"storeId"`
	Category       string            `json:"category,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Stock          int               `json:"stock"`
	InStock        *bool             `json:"inStock,omitempty"`
	Rating         RatingPayload     `json:"rating"`
}

// ProductPagePayload is one page of the catalog
type ProductPagePayload struct {
	Items []ProductPayload `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// CartItemPayload is a cart line; the product may or may not be populated
type CartItemPayload struct {
	Product   Ref[ProductPayload] `json:"product"`
	ProductID string              `json:"productId,omitempty"`
	Quantity  int                 `json:"quantity"`
}

// CartPayload is a cart as the API returns it
type CartPayload struct {
	docID
	UserID string            `json:"userId"`
	Items  []CartItemPayload `json:"items"`
}

// OrderItemPayload is a line of an order with its placement-time snapshot
type OrderItemPayload struct {
	Product  Ref[ProductPayload] `json:"product"`
	Title    string              `json:"title"`
	Price    float64             `json:"price"`
	Quantity int                 `json:"quantity"`
	Image    string              `json:"image,omitempty"`
}

// StatusChangePayload is one entry of an order's status history
type StatusChangePayload struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

// BuyerPayload is the buyer summary joined onto seller order views
type BuyerPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderPayload is an order as the API returns it
type OrderPayload struct {
	docID
	BuyerID             string                `json:"buyerId"`
	StoreID             string                `json:"storeId"`
	Items               []OrderItemPayload    `json:"items"`
	Total               float64               `json:"total"`
	Status              string                `json:"status"`
	PlacedAt            time.Time             `json:"placedAt"`
	CheckoutCodeExpires *time.Time            `json:"checkoutCodeExpires,omitempty"`
	UpdateHistory       []StatusChangePayload `json:"updateHistory,omitempty"`
	Buyer               *BuyerPayload         `json:"buyer,omitempty"`
}

// PlaceOrderPayload is the placement response
type PlaceOrderPayload struct {
	Order        OrderPayload `json:"order"`
	EmailSent    bool         `json:"emailSent"`
	CheckoutCode string       `json:"checkoutCode,omitempty"`
}
