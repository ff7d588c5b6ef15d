package ports

import "context"

// Mailer delivers a message to a single address.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
