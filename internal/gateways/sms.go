package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/valyala/fasthttp"
)

type smsSendRequest struct {
	MessageID   string `json:"message_id"`
	PhoneNumber string `json:"phone_number"`
	Sender      string `json:"sender,omitempty"`
	Content     string `json:"content"`
}

type smsSendResponse struct {
	MessageID  string `json:"message_id"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorMsg   string `json:"error_message,omitempty"`
	OperatorID string `json:"operator_id"`
}

type operatorMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *operatorMetrics) recordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *operatorMetrics) recordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *operatorMetrics) avgLatencyMs() int64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / total
}

func (m *operatorMetrics) successRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

type OperatorState int32

const (
	StateHealthy OperatorState = iota
	StateDegraded
	StateUnhealthy
	StateCircuitOpen
)

// operator is one SMS provider endpoint.
type operator struct {
	name             string
	url              string
	weight           int
	metrics          operatorMetrics
	state            atomic.Int32
	circuitOpenUntil atomic.Int64
}

func (o *operator) getState() OperatorState {
	return OperatorState(o.state.Load())
}

func (o *operator) setState(s OperatorState) {
	o.state.Store(int32(s))
}

func (o *operator) available(now time.Time) bool {
	switch o.getState() {
	case StateCircuitOpen:
		if now.UnixMilli() > o.circuitOpenUntil.Load() {
			o.setState(StateDegraded)
			return true
		}
		return false
	case StateUnhealthy:
		return false
	}
	return true
}

// score ranks available operators; higher is better.
func (o *operator) score(now time.Time) float64 {
	if !o.available(now) {
		return 0
	}
	latencyScore := 100.0
	if avg := o.metrics.avgLatencyMs(); avg > 0 {
		latencyScore = 100.0 * (1.0 - float64(avg)/5000.0)
		if latencyScore < 0 {
			latencyScore = 0
		}
	}
	penalty := 1.0 - float64(o.metrics.ConsecutiveFails.Load())*0.1
	if penalty < 0.1 {
		penalty = 0.1
	}
	if o.getState() == StateDegraded {
		penalty *= 0.5
	}
	return (o.metrics.successRate()*100*0.4 + latencyScore*0.4 + float64(o.weight)*0.2) * penalty
}

type SmsConfig struct {
	Operators               []OperatorConfig
	Sender                  string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	HealthCheckInterval     time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

type OperatorConfig struct {
	Name   string
	URL    string
	Weight int
}

// OperatorsFromURLs builds a primary/secondary/backup list, skipping empty URLs.
func OperatorsFromURLs(urls ...string) []OperatorConfig {
	names := []string{"primary", "secondary", "backup"}
	weights := []int{100, 70, 40}
	var out []OperatorConfig
	for i, u := range urls {
		if u == "" || i >= len(names) {
			continue
		}
		out = append(out, OperatorConfig{Name: names[i], URL: u, Weight: weights[i]})
	}
	return out
}

// SmsClient sends SMS through the best scoring operator, failing over on
// transport errors and opening a circuit after repeated failures.
type SmsClient struct {
	cfg       SmsConfig
	http      *fasthttp.Client
	operators []*operator
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewSmsClient(cfg SmsConfig) (*SmsClient, error) {
	if len(cfg.Operators) == 0 {
		return nil, errors.New("at least one sms operator is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.CircuitBreakerTimeout == 0 {
		cfg.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &SmsClient{
		cfg: cfg,
		http: &fasthttp.Client{
			MaxConnsPerHost:     cfg.MaxConns,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
		stopCh: make(chan struct{}),
	}
	for _, oc := range cfg.Operators {
		c.operators = append(c.operators, &operator{name: oc.Name, url: oc.URL, weight: oc.Weight})
		logger.Info("sms operator initialized", "name", oc.Name, "url", oc.URL, "weight", oc.Weight)
	}

	if cfg.HealthCheckInterval > 0 {
		c.wg.Add(1)
		go c.healthChecker()
	}
	return c, nil
}

func (c *SmsClient) selectOperator() (*operator, error) {
	now := time.Now()
	var best *operator
	var bestScore float64
	for _, o := range c.operators {
		if s := o.score(now); s > bestScore {
			best, bestScore = o, s
		}
	}
	if best == nil {
		return nil, ErrNoAvailableProviders
	}
	return best, nil
}

func (c *SmsClient) Send(ctx context.Context, msg model.OutboundMessage) (string, error) {
	body, err := json.Marshal(smsSendRequest{
		PhoneNumber: msg.To,
		Sender:      c.cfg.Sender,
		Content:     msg.Body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		op, err := c.selectOperator()
		if err != nil {
			lastErr = unavailable("%v", err)
			continue
		}

		start := time.Now()
		raw, err := c.do(ctx, op, fasthttp.MethodPost, "/api/v1/sms/send", body)
		if err != nil {
			op.metrics.recordFailure()
			c.checkCircuitBreaker(op)
			logger.Warn("sms operator request failed", "error", err, "operator", op.name, "attempt", attempt+1)
			lastErr = unavailable("%v", err)
			continue
		}
		op.metrics.recordSuccess(time.Since(start).Milliseconds())

		var resp smsSendResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", unavailable("invalid operator response: %v", err)
		}
		if resp.Status == "FAILED" {
			reason := resp.ErrorMsg
			if reason == "" {
				reason = resp.ErrorCode
			}
			return "", rejected("%s", reason)
		}
		return resp.MessageID, nil
	}
	return "", fmt.Errorf("failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *SmsClient) do(ctx context.Context, op *operator, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(op.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	}
	return append([]byte(nil), resp.Body()...), nil
}

func (c *SmsClient) checkCircuitBreaker(op *operator) {
	fails := op.metrics.ConsecutiveFails.Load()
	if fails >= int32(c.cfg.CircuitBreakerThreshold) {
		op.setState(StateCircuitOpen)
		op.circuitOpenUntil.Store(time.Now().Add(c.cfg.CircuitBreakerTimeout).UnixMilli())
		logger.Warn("circuit breaker opened", "operator", op.name, "consecutive_fails", fails)
	}
}

func (c *SmsClient) healthChecker() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.checkHealth()
		case <-c.stopCh:
			return
		}
	}
}

func (c *SmsClient) checkHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	for _, op := range c.operators {
		if op.getState() == StateCircuitOpen {
			continue
		}
		healthy := false
		if raw, err := c.do(ctx, op, fasthttp.MethodGet, "/health", nil); err == nil {
			var health struct {
				Status string `json:"status"`
			}
			healthy = json.Unmarshal(raw, &health) == nil && health.Status == "healthy"
		}

		old := op.getState()
		var next OperatorState
		switch {
		case !healthy:
			next = StateUnhealthy
		case op.metrics.successRate() < 0.8:
			next = StateDegraded
		default:
			next = StateHealthy
		}
		if next != old {
			op.setState(next)
			logger.Info("sms operator state changed", "operator", op.name, "old_state", old, "new_state", next)
		}
	}
}

// Close stops the health checker.
func (c *SmsClient) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	return nil
}
