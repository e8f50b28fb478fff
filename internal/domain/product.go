package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is the aggregate of all reviews of a product
type Rating struct {
	Value float64 `bson:"value" json:"value"`
	Count int     `bson:"count" json:"count"`
}

// Product represents a product in the catalog
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Price          float64            `bson:"price" json:"price"`
	CompareAtPrice *float64           `bson:"compareAtPrice,omitempty" json:"compareAtPrice,omitempty"`
	StoreID        primitive.ObjectID `bson:"storeId" json:"storeId"`
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`
	Brand          string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Images         []string           `bson:"images,omitempty" json:"images,omitempty"`
	Stock          int                `bson:"stock" json:"stock"`
	InStock        *bool              `bson:"inStock,omitempty" json:"inStock,omitempty"`
	Rating         Rating             `bson:"rating" json:"rating"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsInStock reports availability; an explicit flag overrides the stock count
func (p *Product) IsInStock() bool {
	if p.InStock != nil {
		return *p.InStock
	}
	return p.Stock > 0
}

// PrimaryImage returns the first image or an empty string
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
