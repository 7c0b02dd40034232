package mailer

import "context"

// Mailer is the outbound mail transport consumed by the notification
// dispatcher. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
