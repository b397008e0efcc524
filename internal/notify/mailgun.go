package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// MailgunMailer delivers messages through the Mailgun HTTP API.
type MailgunMailer struct {
	mg     mailgun.Mailgun
	from   string
	logger *logger.Logger
}

// NewMailgunMailer creates a mailer for the given sending domain. An empty
// apiBase keeps the library default (US region).
func NewMailgunMailer(domain, apiKey, apiBase, from string, log *logger.Logger) *MailgunMailer {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &MailgunMailer{mg: mg, from: from, logger: log}
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Body, msg.To)
	resp, id, err := m.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("mailgun_id", id).
		Str("response", resp).
		Msg("mail sent")
	return nil
}
