package notify

import (
	"context"
	"fmt"

	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

// EventHandler renders mail for events (testable without RabbitMQ)
type EventHandler struct {
	mailer  Mailer
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewEventHandler creates a new mail event handler
func NewEventHandler(mailer Mailer, m *metrics.Metrics, log *logger.Logger) *EventHandler {
	return &EventHandler{mailer: mailer, metrics: m, logger: log}
}

// Handlers maps each handled event type to its handler.
func (h *EventHandler) Handlers() map[string]messaging.MessageHandler {
	return map[string]messaging.MessageHandler{
		messaging.EventInvitationCreated:      h.observe(messaging.EventInvitationCreated, h.handleInvitationCreated),
		messaging.EventPasswordResetRequested: h.observe(messaging.EventPasswordResetRequested, h.handlePasswordReset),
		messaging.EventOnboardingCompleted:    h.observe(messaging.EventOnboardingCompleted, h.handleOnboardingCompleted),
	}
}

// HandleEvent dispatches a single event by type.
func (h *EventHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	handler, ok := h.Handlers()[event.Type]
	if !ok {
		h.logger.Warn().Str("event_type", event.Type).Msg("unknown event type received")
		return nil
	}
	return handler(ctx, event)
}

func (h *EventHandler) observe(eventType string, fn messaging.MessageHandler) messaging.MessageHandler {
	return func(ctx context.Context, event *messaging.Event) error {
		err := fn(ctx, event)
		h.metrics.ObserveConsume(eventType, err)
		return err
	}
}

func (h *EventHandler) handleInvitationCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.InvitationCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal InvitationCreatedEvent")
		return err
	}
	if data.Email == "" || data.AcceptURL == "" {
		return fmt.Errorf("invitation %s: missing email or accept url", data.InvitationID)
	}

	inviter := data.InviterName
	if inviter == "" {
		inviter = i18n.TWithLocale(data.Locale, "mail.someone")
	}
	params := map[string]string{
		"tenant":  data.TenantName,
		"inviter": inviter,
		"role":    data.Role,
		"url":     data.AcceptURL,
	}
	return h.send(ctx, data.Email, data.Locale, "mail.invitation_subject", "mail.invitation_body", params)
}

func (h *EventHandler) handlePasswordReset(ctx context.Context, event *messaging.Event) error {
	var data messaging.PasswordResetRequestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal PasswordResetRequestedEvent")
		return err
	}
	if data.Email == "" || data.ResetURL == "" {
		return fmt.Errorf("password reset for %s: missing email or reset url", data.IdentityID)
	}
	return h.send(ctx, data.Email, data.Locale, "mail.reset_subject", "mail.reset_body",
		map[string]string{"url": data.ResetURL})
}

func (h *EventHandler) handleOnboardingCompleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.OnboardingCompletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal OnboardingCompletedEvent")
		return err
	}
	if data.Email == "" {
		h.logger.Warn().Str("profile_id", data.ProfileID).Msg("onboarding.completed without email, skipping welcome mail")
		return nil
	}
	return h.send(ctx, data.Email, data.Locale, "mail.welcome_subject", "mail.welcome_body",
		map[string]string{"tenant": data.TenantName, "name": data.FirstName})
}

func (h *EventHandler) send(ctx context.Context, to, locale, subjectKey, bodyKey string, params map[string]string) error {
	l := i18n.NewLocalizer(locale)
	msg := Message{
		To:      to,
		Subject: l.T(subjectKey, params),
		Body:    l.T(bodyKey, params),
		Locale:  l.Locale(),
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error().Err(err).Str("to", to).Str("template", subjectKey).Msg("failed to send mail")
		return err
	}
	return nil
}
