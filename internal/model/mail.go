package model

import "context"

// Mailer delivers transactional mail (password reset tokens).
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
