// Package notify turns domain events into outgoing mail.
package notify

import (
	"context"

	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// Message is a rendered plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
	Locale  string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Logger *logger.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("locale", msg.Locale).
		Str("body", msg.Body).
		Msg("mail sent")
	return nil
}
