package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreStatus is the approval status of a store
type StoreStatus string

const (
	StoreStatusPending  StoreStatus = "pending"
	StoreStatusApproved StoreStatus = "approved"
	StoreStatusRejected StoreStatus = "rejected"
)

// IsValid checks if the status is a known StoreStatus
func (s StoreStatus) IsValid() bool {
	switch s {
	case StoreStatusPending, StoreStatusApproved, StoreStatusRejected:
		return true
	}
	return false
}

// Store is owned by exactly one seller
type Store struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   string             `bson:"ownerId" json:"ownerId"`
	Name      string             `bson:"name" json:"name"`
	Status    StoreStatus        `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
