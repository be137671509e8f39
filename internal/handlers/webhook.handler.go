package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
	"github.com/nimasrn/review-runner/pkg/logger"
)

const WebhookSecretHeader = "X-Webhook-Secret"

var errWebhookNotConfigured = errors.New("webhook secret is not configured")

type DeliveryTracker interface {
	MarkDelivered(ctx context.Context, providerMessageID string) error
	OptOutByMessageID(ctx context.Context, providerMessageID, reason string) error
}

type UserProvisioner interface {
	Provision(ctx context.Context, req model.ProvisionRequest) (*model.User, error)
}

type WebhookHandler struct {
	tracker DeliveryTracker
	users   UserProvisioner
	secret  string
	resp    *Responder
}

func RegisterWebhookRoutes(r *router.Router, h *WebhookHandler) {
	g := r.Group("/api/webhooks")
	g.POST("/email", h.verified(h.EmailEvents))
	g.POST("/identity", h.verified(h.IdentityEvent))
}

func NewWebhookHandler(tracker DeliveryTracker, users UserProvisioner, secret string, resp *Responder) *WebhookHandler {
	return &WebhookHandler{tracker: tracker, users: users, secret: secret, resp: resp}
}

// verified checks the shared secret. A missing secret fails the route
// rather than leaving it open.
func (h *WebhookHandler) verified(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		if h.secret == "" {
			h.resp.Fail(ctx, apperr.Dependency(errWebhookNotConfigured, "webhook is not configured"))
			return
		}
		got := ctx.Request.Header.Peek(WebhookSecretHeader)
		if len(got) == 0 {
			got = ctx.QueryArgs().Peek("secret")
		}
		if subtle.ConstantTimeCompare(got, []byte(h.secret)) != 1 {
			h.resp.Fail(ctx, apperr.Unauthenticated("invalid webhook secret"))
			return
		}
		next(ctx)
	}
}

// emailEvent is one entry of a SendGrid event webhook batch.
type emailEvent struct {
	Event       string `json:"event"`
	SgMessageID string `json:"sg_message_id"`
}

func (h *WebhookHandler) EmailEvents(ctx *xhttp.RequestCtx) {
	var events []emailEvent
	if err := readJSON(ctx, &events); err != nil {
		h.resp.Fail(ctx, err)
		return
	}

	processed := 0
	for _, ev := range events {
		msgID := providerMessageID(ev.SgMessageID)
		if msgID == "" {
			continue
		}
		var err error
		switch ev.Event {
		case "delivered":
			err = h.tracker.MarkDelivered(ctx, msgID)
		case "unsubscribe", "group_unsubscribe", "spamreport":
			err = h.tracker.OptOutByMessageID(ctx, msgID, "provider "+ev.Event)
		default:
			continue
		}
		if err != nil {
			logger.Error("failed to apply email event", "event", ev.Event, "message_id", msgID, "error", err)
			h.resp.Fail(ctx, err)
			return
		}
		processed++
	}
	h.resp.OK(ctx, xhttp.StatusOK, map[string]int{"processed": processed})
}

// providerMessageID strips the per-recipient suffix SendGrid appends to the
// X-Message-Id it returned on send.
func providerMessageID(sgMessageID string) string {
	id, _, _ := strings.Cut(sgMessageID, ".")
	return id
}

type identityEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"data"`
}

func (h *WebhookHandler) IdentityEvent(ctx *xhttp.RequestCtx) {
	var ev identityEvent
	if err := readJSON(ctx, &ev); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	if ev.Event != "user.created" && ev.Event != "user.updated" {
		h.resp.OK(ctx, xhttp.StatusOK, map[string]bool{"ignored": true})
		return
	}

	user, err := h.users.Provision(ctx, model.ProvisionRequest{
		ProviderUserID: ev.Data.ID,
		Email:          ev.Data.Email,
		Name:           strings.TrimSpace(ev.Data.FirstName + " " + ev.Data.LastName),
	})
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, user)
}
