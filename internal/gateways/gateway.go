package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/review-runner/internal/model"
)

var (
	// ErrRejected means the provider refused the message. Retrying will not help.
	ErrRejected = errors.New("provider rejected message")
	// ErrUnavailable covers transport failures and provider side errors.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrNotConfigured is returned when the provider credentials are missing.
	ErrNotConfigured = errors.New("provider is not configured")
	// ErrNoAvailableProviders is returned when every SMS operator is unhealthy.
	ErrNoAvailableProviders = errors.New("no available providers")
)

// ProviderError carries the reason reported by a provider.
type ProviderError struct {
	Kind   error
	Reason string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Kind }

func rejected(format string, args ...any) error {
	return &ProviderError{Kind: ErrRejected, Reason: fmt.Sprintf(format, args...)}
}

func unavailable(format string, args ...any) error {
	return &ProviderError{Kind: ErrUnavailable, Reason: fmt.Sprintf(format, args...)}
}

// Reason extracts the provider supplied reason from err.
func Reason(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Sender delivers a message on a single channel and returns the provider
// message id.
type Sender interface {
	Send(ctx context.Context, msg model.OutboundMessage) (string, error)
}

// Messenger routes messages to the sender of their channel.
type Messenger struct {
	senders map[model.Channel]Sender
}

func NewMessenger(email, sms Sender) *Messenger {
	m := &Messenger{senders: map[model.Channel]Sender{}}
	if email != nil {
		m.senders[model.ChannelEmail] = email
	}
	if sms != nil {
		m.senders[model.ChannelSMS] = sms
	}
	return m
}

func (m *Messenger) Send(ctx context.Context, msg model.OutboundMessage) (string, error) {
	s, ok := m.senders[msg.Channel]
	if !ok {
		return "", fmt.Errorf("channel %s: %w", msg.Channel, ErrNotConfigured)
	}
	return s.Send(ctx, msg)
}
