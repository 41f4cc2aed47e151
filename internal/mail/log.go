package mail

import (
	"context"

	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

// LogMailer writes messages to the log instead of delivering them. Used
// when no mail provider is configured, typically in development.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail not configured, logging message",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}

var _ model.Mailer = (*LogMailer)(nil)
