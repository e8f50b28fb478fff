package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when no mail transport is configured
var ErrNotConfigured = errors.New("mail delivery is not configured")

// CheckoutCodeMessage is the data rendered into a checkout code email
type CheckoutCodeMessage struct {
	To        string
	BuyerName string
	OrderID   string
	Code      string
	Total     float64
	ExpiresAt time.Time
}

// Notifier delivers messages to users out of band
type Notifier interface {
	SendCheckoutCode(ctx context.Context, msg CheckoutCodeMessage) error
}

type disabledNotifier struct{}

// NewDisabledNotifier returns a Notifier whose every send fails with ErrNotConfigured
func NewDisabledNotifier() Notifier {
	return disabledNotifier{}
}

func (disabledNotifier) SendCheckoutCode(context.Context, CheckoutCodeMessage) error {
	return ErrNotConfigured
}
