package adapter

import "context"

// Mailer sends the post-purchase messages. Every call is best-effort: the
// caller logs failures and never lets them change an HTTP outcome.
type Mailer interface {
	SendPurchaseConfirmation(ctx context.Context, to, courseTitle string) error
	SendWelcome(ctx context.Context, to string) error
}
