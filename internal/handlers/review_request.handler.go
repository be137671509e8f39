package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/services"
	"github.com/nimasrn/review-runner/internal/validate"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

type ReviewRequestService interface {
	Create(ctx context.Context, businessID string, req model.CreateReviewRequestsRequest) ([]*model.ReviewRequest, error)
	List(ctx context.Context, businessID string, f model.ReviewRequestFilter) ([]*model.ReviewRequest, int64, error)
}

type Dispatcher interface {
	SendOne(ctx context.Context, businessID, id string) (*model.SendResult, error)
	SendBulk(ctx context.Context, businessID string, ids []string) (*model.BulkSendResult, error)
	Enqueue(ctx context.Context, businessID string, ids []string) (*model.EnqueueResult, error)
}

type AnalyticsService interface {
	Summary(ctx context.Context, businessID string, q services.AnalyticsQuery) (*model.AnalyticsSummary, error)
}

type ReviewRequestHandler struct {
	requests   ReviewRequestService
	dispatcher Dispatcher
	analytics  AnalyticsService
	resp       *Responder
}

func RegisterReviewRequestRoutes(g *router.Group, h *ReviewRequestHandler, guard *Guard) {
	g.GET("/review-requests", guard.Business(h.List))
	g.POST("/review-requests", guard.Business(h.Create))
	g.POST("/review-requests/send", guard.Business(h.Send))
	g.POST("/review-requests/enqueue", guard.Business(h.Enqueue))
	g.GET("/analytics", guard.Business(h.Analytics))
}

func NewReviewRequestHandler(requests ReviewRequestService, dispatcher Dispatcher, analytics AnalyticsService, resp *Responder) *ReviewRequestHandler {
	return &ReviewRequestHandler{requests: requests, dispatcher: dispatcher, analytics: analytics, resp: resp}
}

func (h *ReviewRequestHandler) List(ctx *xhttp.RequestCtx) {
	f := model.ReviewRequestFilter{
		Page: model.Page{Limit: queryInt(ctx, "limit"), Offset: queryInt(ctx, "offset")},
	}
	if v := query(ctx, "status"); v != "" {
		s := model.ReviewRequestStatus(v)
		f.Status = &s
	}
	if v := query(ctx, "channel"); v != "" {
		ch, err := validate.Channel(v)
		if err != nil {
			h.resp.Fail(ctx, err)
			return
		}
		f.Channel = &ch
	}
	if v := query(ctx, "customerId"); v != "" {
		f.CustomerID = &v
	}

	items, total, err := h.requests.List(ctx, businessFrom(ctx).BusinessID(), f)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, listResponse[*model.ReviewRequest]{Items: items, Total: total})
}

func (h *ReviewRequestHandler) Create(ctx *xhttp.RequestCtx) {
	var req model.CreateReviewRequestsRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	created, err := h.requests.Create(ctx, businessFrom(ctx).BusinessID(), req)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusCreated, created)
}

// Send dispatches synchronously. Resubmitting an id sends it again.
func (h *ReviewRequestHandler) Send(ctx *xhttp.RequestCtx) {
	var req model.SendRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}

	businessID := businessFrom(ctx).BusinessID()
	if req.IsBulk() {
		res, err := h.dispatcher.SendBulk(ctx, businessID, req.IDs)
		if err != nil {
			h.resp.Fail(ctx, err)
			return
		}
		h.resp.OK(ctx, xhttp.StatusOK, res)
		return
	}

	res, err := h.dispatcher.SendOne(ctx, businessID, req.ID)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, res)
}

func (h *ReviewRequestHandler) Enqueue(ctx *xhttp.RequestCtx) {
	var req model.SendRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	ids := req.IDs
	if !req.IsBulk() {
		ids = []string{req.ID}
	}
	res, err := h.dispatcher.Enqueue(ctx, businessFrom(ctx).BusinessID(), ids)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, res)
}

func (h *ReviewRequestHandler) Analytics(ctx *xhttp.RequestCtx) {
	summary, err := h.analytics.Summary(ctx, businessFrom(ctx).BusinessID(), services.AnalyticsQuery{
		Channel: query(ctx, "channel"),
		From:    query(ctx, "from"),
		To:      query(ctx, "to"),
	})
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, summary)
}
