// Package mail sends transactional email.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/dankrut/callisto-server/internal/model"
)

const sendTimeout = 30 * time.Second

// Mailgun sends mail through the Mailgun API.
type Mailgun struct {
	client *mailgun.MailgunImpl
	sender string
}

// NewMailgun creates a Mailgun sender for the given domain and API key.
func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		client: mailgun.NewMailgun(domain, apiKey),
		sender: sender,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailgun) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := m.client.NewMessage(m.sender, subject, body, to)
	if _, _, err := m.client.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var _ model.Mailer = (*Mailgun)(nil)
