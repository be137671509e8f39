package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailClient_Send(t *testing.T) {
	var captured sendgridMail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		if captured.Personalizations[0].To[0].Email == "bounce@example.com" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"invalid recipient","field":"to"}]}`))
			return
		}
		w.Header().Set("X-Message-Id", "sg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewEmailClient(EmailConfig{BaseURL: srv.URL, APIKey: "sg-key", FromEmail: "hello@rr.example"})
	ctx := context.Background()

	id, err := client.Send(ctx, model.OutboundMessage{
		Channel: model.ChannelEmail,
		To:      "jane@example.com",
		Subject: "How did we do?",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-123", id)
	assert.Equal(t, "hello@rr.example", captured.From.Email)
	assert.Len(t, captured.Content, 2)

	_, err = client.Send(ctx, model.OutboundMessage{Channel: model.ChannelEmail, To: "bounce@example.com", Body: "x"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "invalid recipient", Reason(err))
}

func TestEmailClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewEmailClient(EmailConfig{BaseURL: srv.URL, APIKey: "k", FromEmail: "f@rr.example"})
	_, err := client.Send(context.Background(), model.OutboundMessage{To: "a@example.com"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEmailClient_NotConfigured(t *testing.T) {
	client := NewEmailClient(EmailConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Send(context.Background(), model.OutboundMessage{To: "a@example.com"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
