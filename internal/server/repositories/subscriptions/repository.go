package subscriptions

import "context"

// Repository stores who follows which channel. Both operations are
// idempotent.
type Repository interface {
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
}
