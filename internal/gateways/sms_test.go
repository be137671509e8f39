package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func operatorServer(t *testing.T, status int, reply smsSendResponse, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		hits.Add(1)
		var req smsSendRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSmsClient_Send(t *testing.T) {
	var hits atomic.Int32
	srv := operatorServer(t, http.StatusOK, smsSendResponse{MessageID: "op-1", Status: "PENDING"}, &hits)

	client, err := NewSmsClient(SmsConfig{Operators: []OperatorConfig{{Name: "primary", URL: srv.URL, Weight: 100}}})
	require.NoError(t, err)
	defer client.Close()

	id, err := client.Send(context.Background(), model.OutboundMessage{Channel: model.ChannelSMS, To: "+447123456789", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", id)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSmsClient_Rejected(t *testing.T) {
	var hits atomic.Int32
	srv := operatorServer(t, http.StatusOK, smsSendResponse{Status: "FAILED", ErrorMsg: "number barred"}, &hits)

	client, err := NewSmsClient(SmsConfig{Operators: []OperatorConfig{{Name: "primary", URL: srv.URL, Weight: 100}}})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send(context.Background(), model.OutboundMessage{To: "+447123456789"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "number barred", Reason(err))
}

func TestSmsClient_FailsOver(t *testing.T) {
	var badHits, goodHits atomic.Int32
	bad := operatorServer(t, http.StatusServiceUnavailable, smsSendResponse{}, &badHits)
	good := operatorServer(t, http.StatusOK, smsSendResponse{MessageID: "op-2", Status: "PENDING"}, &goodHits)

	client, err := NewSmsClient(SmsConfig{
		Operators: []OperatorConfig{
			{Name: "primary", URL: bad.URL, Weight: 100},
			{Name: "secondary", URL: good.URL, Weight: 10},
		},
		MaxRetries:              2,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 1,
		CircuitBreakerTimeout:   time.Minute,
	})
	require.NoError(t, err)
	defer client.Close()

	id, err := client.Send(context.Background(), model.OutboundMessage{To: "+447123456789"})
	require.NoError(t, err)
	assert.Equal(t, "op-2", id)
	assert.Equal(t, int32(1), badHits.Load())
	assert.Equal(t, StateCircuitOpen, client.operators[0].getState())
}

func TestSmsClient_AllOperatorsDown(t *testing.T) {
	var hits atomic.Int32
	bad := operatorServer(t, http.StatusInternalServerError, smsSendResponse{}, &hits)

	client, err := NewSmsClient(SmsConfig{
		Operators:  []OperatorConfig{{Name: "primary", URL: bad.URL, Weight: 100}},
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send(context.Background(), model.OutboundMessage{To: "+447123456789"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOperator_Availability(t *testing.T) {
	op := &operator{name: "test", weight: 100}
	now := time.Now()

	assert.True(t, op.available(now))

	op.setState(StateUnhealthy)
	assert.False(t, op.available(now))
	assert.Zero(t, op.score(now))

	op.setState(StateCircuitOpen)
	op.circuitOpenUntil.Store(now.Add(time.Second).UnixMilli())
	assert.False(t, op.available(now))
	assert.True(t, op.available(now.Add(2*time.Second)))
	assert.Equal(t, StateDegraded, op.getState())
}

func TestOperatorsFromURLs(t *testing.T) {
	ops := OperatorsFromURLs("http://a", "", "http://c")
	require.Len(t, ops, 2)
	assert.Equal(t, "primary", ops[0].Name)
	assert.Equal(t, "backup", ops[1].Name)
}

func TestMessenger_RoutesByChannel(t *testing.T) {
	var hits atomic.Int32
	srv := operatorServer(t, http.StatusOK, smsSendResponse{MessageID: "op-1"}, &hits)
	sms, err := NewSmsClient(SmsConfig{Operators: []OperatorConfig{{Name: "primary", URL: srv.URL, Weight: 1}}})
	require.NoError(t, err)
	defer sms.Close()

	m := NewMessenger(nil, sms)
	id, err := m.Send(context.Background(), model.OutboundMessage{Channel: model.ChannelSMS, To: "+447123456789"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", id)

	_, err = m.Send(context.Background(), model.OutboundMessage{Channel: model.ChannelEmail, To: "a@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
