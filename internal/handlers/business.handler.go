package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

type BusinessService interface {
	Get(ctx context.Context, businessID string) (*model.Business, error)
	UpdateSettings(ctx context.Context, businessID string, req model.UpdateSettingsRequest) (*model.Business, error)
	ListAll(ctx context.Context, identity *auth.Identity, page model.Page) ([]*model.Business, int64, error)
}

type BusinessHandler struct {
	svc  BusinessService
	resp *Responder
}

func RegisterBusinessRoutes(g *router.Group, h *BusinessHandler, guard *Guard) {
	g.GET("/business", guard.Business(h.Get))
	g.PUT("/business/settings", guard.Business(h.UpdateSettings))
	g.GET("/admin/businesses", guard.Admin(h.ListAll))
}

func NewBusinessHandler(svc BusinessService, resp *Responder) *BusinessHandler {
	return &BusinessHandler{svc: svc, resp: resp}
}

func (h *BusinessHandler) Get(ctx *xhttp.RequestCtx) {
	b, err := h.svc.Get(ctx, businessFrom(ctx).BusinessID())
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, b)
}

func (h *BusinessHandler) UpdateSettings(ctx *xhttp.RequestCtx) {
	var req model.UpdateSettingsRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	b, err := h.svc.UpdateSettings(ctx, businessFrom(ctx).BusinessID(), req)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, b)
}

func (h *BusinessHandler) ListAll(ctx *xhttp.RequestCtx) {
	page := model.Page{Limit: queryInt(ctx, "limit"), Offset: queryInt(ctx, "offset")}
	items, total, err := h.svc.ListAll(ctx, identityFrom(ctx), page)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, listResponse[*model.Business]{Items: items, Total: total})
}
