package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type EmailConfig struct {
	BaseURL   string
	APIKey    string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// EmailClient sends mail through the SendGrid v3 API.
type EmailClient struct {
	httpClient *resty.Client
	cfg        EmailConfig
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridMail struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendgridAddress   `json:"from"`
	Subject string            `json:"subject"`
	Content []sendgridContent `json:"content"`
}

type sendgridErrors struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func NewEmailClient(cfg EmailConfig) *EmailClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &EmailClient{httpClient: client, cfg: cfg}
}

func (c *EmailClient) Send(ctx context.Context, msg model.OutboundMessage) (string, error) {
	if c.cfg.APIKey == "" || c.cfg.FromEmail == "" {
		return "", ErrNotConfigured
	}

	body := sendgridMail{
		From:    sendgridAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject: msg.Subject,
		Content: []sendgridContent{{Type: "text/plain", Value: msg.Body}},
	}
	if msg.HTML != "" {
		body.Content = append(body.Content, sendgridContent{Type: "text/html", Value: msg.HTML})
	}
	body.Personalizations = make([]struct {
		To []sendgridAddress `json:"to"`
	}, 1)
	body.Personalizations[0].To = []sendgridAddress{{Email: msg.To}}

	var failure sendgridErrors
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetBody(body).
		SetError(&failure).
		Post("/v3/mail/send")
	if err != nil {
		logger.Warn("sendgrid request failed", "error", err)
		return "", unavailable("sendgrid request failed: %v", err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusAccepted || status == http.StatusOK:
		id := resp.Header().Get("X-Message-Id")
		logger.Debug("email accepted by sendgrid", "message_id", id)
		return id, nil
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return "", unavailable("sendgrid returned status %d", status)
	default:
		reason := "sendgrid rejected the message"
		if len(failure.Errors) > 0 && failure.Errors[0].Message != "" {
			reason = failure.Errors[0].Message
		}
		logger.Warn("sendgrid rejected message", "status", status, "reason", reason)
		return "", rejected("%s", reason)
	}
}
