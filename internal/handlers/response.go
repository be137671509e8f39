package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/nimasrn/review-runner/internal/apperr"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
	"github.com/nimasrn/review-runner/pkg/logger"
)

const opaqueMessage = "an internal error occurred"

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// Responder writes the JSON envelope. With debug set, opaque errors carry
// their cause in details; it is read once from config at startup.
type Responder struct {
	debug bool
}

func NewResponder(debug bool) *Responder {
	return &Responder{debug: debug}
}

func (r *Responder) OK(ctx *xhttp.RequestCtx, status int, data any) {
	writeJSON(ctx, status, envelope{Success: true, Data: data})
}

func (r *Responder) Fail(ctx *xhttp.RequestCtx, err error) {
	ae := apperr.As(err)
	body := &errorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details}

	if ae.Opaque() {
		logger.Error("request failed", "path", string(ctx.Path()), "code", ae.Code, "request_id", xhttp.RequestID(ctx), "error", err)
		body.Message = opaqueMessage
		body.Details = nil
		if r.debug {
			body.Details = map[string]string{"cause": err.Error()}
		}
	}
	writeJSON(ctx, ae.Status(), envelope{Error: body})
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return apperr.Validation("invalid JSON body", map[string]string{"body": err.Error()}).WithCode("INVALID_JSON")
	}
	return nil
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "path", string(ctx.Path()), "error", err)
		status = xhttp.StatusInternalServerError
		b = []byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"` + opaqueMessage + `"}}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func pathParam(ctx *xhttp.RequestCtx, key string) string {
	v, _ := ctx.UserValue(key).(string)
	return v
}
