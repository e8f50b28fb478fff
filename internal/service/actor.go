package service

import "marketplace/internal/domain"

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor bypasses ownership checks
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}
