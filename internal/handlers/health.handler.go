package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/services"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

type HealthService interface {
	Check(ctx context.Context) (*services.HealthReport, error)
}

type HealthHandler struct {
	svc  HealthService
	resp *Responder
	name string
}

func RegisterHealthRoutes(r *router.Router, h *HealthHandler) {
	r.GET("/", h.Home)
	r.GET("/api/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService, resp *Responder, name string) *HealthHandler {
	return &HealthHandler{svc: svc, resp: resp, name: name}
}

func (h *HealthHandler) Home(ctx *xhttp.RequestCtx) {
	h.resp.OK(ctx, xhttp.StatusOK, map[string]string{"service": h.name})
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	report, err := h.svc.Check(ctx)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, report)
}
