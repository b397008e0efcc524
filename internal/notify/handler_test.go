package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/notify"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func event(t *testing.T, eventType string, data any) *messaging.Event {
	t.Helper()
	ev, err := messaging.NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	return ev
}

func TestHandleEvent_Invitation(t *testing.T) {
	mailer := &recordingMailer{}
	h := notify.NewEventHandler(mailer, nil, logger.Nop())

	err := h.HandleEvent(context.Background(), event(t, messaging.EventInvitationCreated, messaging.InvitationCreatedEvent{
		InvitationID: "i1",
		TenantName:   "Acme",
		Email:        "bob@example.com",
		Role:         "member",
		InviterName:  "Alice",
		AcceptURL:    "https://app.test/invite/abc",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "bob@example.com", msg.To)
	assert.Equal(t, "You have been invited to join Acme", msg.Subject)
	assert.Contains(t, msg.Body, "Alice invited you")
	assert.Contains(t, msg.Body, "https://app.test/invite/abc")
	assert.Equal(t, "en", msg.Locale)
}

func TestHandleEvent_UsesPayloadLocale(t *testing.T) {
	mailer := &recordingMailer{}
	h := notify.NewEventHandler(mailer, nil, logger.Nop())

	err := h.HandleEvent(context.Background(), event(t, messaging.EventOnboardingCompleted, messaging.OnboardingCompletedEvent{
		TenantName: "Acme",
		Email:      "a@x.com",
		FirstName:  "Ada",
		Locale:     "de",
	}))
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Willkommen bei Acme", mailer.sent[0].Subject)
	assert.Equal(t, "Hallo Ada, Ihr Arbeitsbereich Acme ist bereit.", mailer.sent[0].Body)
}

func TestHandleEvent_PasswordReset(t *testing.T) {
	mailer := &recordingMailer{}
	h := notify.NewEventHandler(mailer, nil, logger.Nop())

	err := h.HandleEvent(context.Background(), event(t, messaging.EventPasswordResetRequested, messaging.PasswordResetRequestedEvent{
		IdentityID: "id1",
		Email:      "a@x.com",
		ResetURL:   "https://app.test/reset?token=t",
		Locale:     "fr",
	}))
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Reset your password", mailer.sent[0].Subject)
	assert.Equal(t, "en", mailer.sent[0].Locale, "unsupported locales fall back")
}

func TestHandleEvent_Failures(t *testing.T) {
	t.Run("missing url is an error so the message is retried", func(t *testing.T) {
		h := notify.NewEventHandler(&recordingMailer{}, nil, logger.Nop())
		err := h.HandleEvent(context.Background(), event(t, messaging.EventInvitationCreated, messaging.InvitationCreatedEvent{Email: "b@x.com"}))
		assert.Error(t, err)
	})

	t.Run("mailer error propagates", func(t *testing.T) {
		h := notify.NewEventHandler(&recordingMailer{err: errors.New("smtp down")}, nil, logger.Nop())
		err := h.HandleEvent(context.Background(), event(t, messaging.EventPasswordResetRequested, messaging.PasswordResetRequestedEvent{
			Email: "a@x.com", ResetURL: "https://app.test/reset",
		}))
		assert.EqualError(t, err, "smtp down")
	})

	t.Run("unknown types are ignored", func(t *testing.T) {
		mailer := &recordingMailer{}
		h := notify.NewEventHandler(mailer, nil, logger.Nop())
		assert.NoError(t, h.HandleEvent(context.Background(), event(t, messaging.EventLeadCreated, messaging.RecordEvent{ID: "l1"})))
		assert.Empty(t, mailer.sent)
	})
}

func TestHandlers_RouteThroughRouter(t *testing.T) {
	mailer := &recordingMailer{}
	h := notify.NewEventHandler(mailer, nil, logger.Nop())
	r := messaging.NewRouter(logger.Nop())
	for eventType, fn := range h.Handlers() {
		r.Handle(eventType, fn)
	}

	ev := event(t, messaging.EventOnboardingCompleted, messaging.OnboardingCompletedEvent{TenantName: "Acme", Email: "a@x.com", FirstName: "Ada"})
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	assert.Equal(t, messaging.OutcomeAck, r.Dispatch(context.Background(), body, 0))
	assert.Len(t, mailer.sent, 1)

	mailer.err = errors.New("smtp down")
	assert.Equal(t, messaging.OutcomeRetry, r.Dispatch(context.Background(), body, 0))
	assert.Equal(t, messaging.OutcomeDeadLetter, r.Dispatch(context.Background(), body, messaging.MaxRetries))
}

func TestLogMailer(t *testing.T) {
	m := notify.LogMailer{Logger: logger.Nop()}
	assert.NoError(t, m.Send(context.Background(), notify.Message{To: "a@x.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, notify.Message{}), context.Canceled)
}
