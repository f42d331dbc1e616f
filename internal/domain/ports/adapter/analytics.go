package adapter

import "context"

// Analytics records funnel events. Implementations must be fire-and-forget;
// a tracking failure can never fail a checkout.
type Analytics interface {
	TrackInitiateCheckout(ctx context.Context, userID, courseID string, value int64, currency string)
}
