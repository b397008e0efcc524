package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhub/leadhub-backend/internal/notify"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

const testDomain = "mg.leadhub.test"

func TestMailgunMailer_Send(t *testing.T) {
	var got struct {
		from, to, subject, text string
		user, pass              string
		path                    string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		got.from = r.FormValue("from")
		got.to = r.FormValue("to")
		got.subject = r.FormValue("subject")
		got.text = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":      "<20261017.1@" + testDomain + ">",
			"message": "Queued. Thank you.",
		})
	}))
	defer srv.Close()

	m := notify.NewMailgunMailer(testDomain, "key-123", srv.URL+"/v3", "LeadHub <no-reply@leadhub.test>", logger.Nop())
	err := m.Send(context.Background(), notify.Message{
		To:      "bob@example.com",
		Subject: "You are invited",
		Body:    "Join Acme on LeadHub",
		Locale:  "en",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(got.path, "/"+testDomain+"/messages"), got.path)
	assert.Equal(t, "api", got.user)
	assert.Equal(t, "key-123", got.pass)
	assert.Equal(t, "LeadHub <no-reply@leadhub.test>", got.from)
	assert.Equal(t, "bob@example.com", got.to)
	assert.Equal(t, "You are invited", got.subject)
	assert.Equal(t, "Join Acme on LeadHub", got.text)
}

func TestMailgunMailer_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid private key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := notify.NewMailgunMailer(testDomain, "wrong", srv.URL+"/v3", "no-reply@leadhub.test", logger.Nop())
	err := m.Send(context.Background(), notify.Message{To: "bob@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailgun send")
}
