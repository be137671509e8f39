package handlers

import (
	"context"
	"io"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, businessID string, req model.CustomerCreateRequest) (*model.Customer, error)
	List(ctx context.Context, businessID string, f model.CustomerFilter) ([]*model.Customer, int64, error)
	Import(ctx context.Context, businessID, filename string, data []byte) (*model.ImportResult, error)
}

type CustomerHandler struct {
	svc  CustomerService
	resp *Responder
}

func RegisterCustomerRoutes(g *router.Group, h *CustomerHandler, guard *Guard) {
	g.GET("/customers", guard.Business(h.List))
	g.POST("/customers", guard.Business(h.Create))
	g.POST("/customers/import", guard.Business(h.Import))
}

func NewCustomerHandler(svc CustomerService, resp *Responder) *CustomerHandler {
	return &CustomerHandler{svc: svc, resp: resp}
}

func (h *CustomerHandler) List(ctx *xhttp.RequestCtx) {
	f := model.CustomerFilter{
		Search: query(ctx, "search"),
		Page:   model.Page{Limit: queryInt(ctx, "limit"), Offset: queryInt(ctx, "offset")},
	}
	items, total, err := h.svc.List(ctx, businessFrom(ctx).BusinessID(), f)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, listResponse[*model.Customer]{Items: items, Total: total})
}

func (h *CustomerHandler) Create(ctx *xhttp.RequestCtx) {
	var req model.CustomerCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	c, err := h.svc.Create(ctx, businessFrom(ctx).BusinessID(), req)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusCreated, c)
}

// Import accepts a multipart "file" field or a raw body named by ?filename=.
func (h *CustomerHandler) Import(ctx *xhttp.RequestCtx) {
	filename, data, err := uploadedFile(ctx)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	res, err := h.svc.Import(ctx, businessFrom(ctx).BusinessID(), filename, data)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, res)
}

func uploadedFile(ctx *xhttp.RequestCtx) (string, []byte, error) {
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, apperr.Validation("could not read uploaded file", nil)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, apperr.Validation("could not read uploaded file", nil)
		}
		return fh.Filename, data, nil
	}

	body := ctx.PostBody()
	if len(body) == 0 {
		return "", nil, apperr.Validation("file is required", nil)
	}
	filename := query(ctx, "filename")
	if filename == "" {
		filename = "upload.csv"
	}
	return filename, append([]byte(nil), body...), nil
}
