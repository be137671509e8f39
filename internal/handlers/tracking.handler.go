package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/apperr"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

const unsubscribedPage = `<!doctype html><html><head><meta charset="utf-8"><title>Unsubscribed</title></head>` +
	`<body><p>You have been unsubscribed and will not receive further review requests.</p></body></html>`

type TrackingService interface {
	Click(ctx context.Context, id string) (string, error)
	Unsubscribe(ctx context.Context, id string) error
}

type TrackingHandler struct {
	svc  TrackingService
	resp *Responder
}

func RegisterTrackingRoutes(r *router.Router, h *TrackingHandler) {
	r.GET("/r/{id}", h.Click)
	r.GET("/r/unsubscribe/{id}", h.Unsubscribe)
}

func NewTrackingHandler(svc TrackingService, resp *Responder) *TrackingHandler {
	return &TrackingHandler{svc: svc, resp: resp}
}

func (h *TrackingHandler) Click(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.resp.Fail(ctx, apperr.NotFound("link not found"))
		return
	}
	target, err := h.svc.Click(ctx, id)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.Redirect(target, xhttp.StatusFound)
}

func (h *TrackingHandler) Unsubscribe(ctx *xhttp.RequestCtx) {
	if err := h.svc.Unsubscribe(ctx, pathParam(ctx, "id")); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	ctx.Response.Header.Set("Content-Type", "text/html; charset=utf-8")
	ctx.SetStatusCode(xhttp.StatusOK)
	ctx.SetBodyString(unsubscribedPage)
}
