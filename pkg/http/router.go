package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router
type Group = router.Group

// NewRouter returns a new Router
func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router with JSON 404/405 handlers.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.PanicHandler = func(ctx *RequestCtx, v interface{}) {
		recovered(ctx, v)
	}
	return r
}

// NotFoundHandler is the default 404 handler
func NotFoundHandler(ctx *RequestCtx) {
	writeBareError(ctx, StatusNotFound, "NOT_FOUND", "route not found")
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	writeBareError(ctx, StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func writeBareError(ctx *RequestCtx, status int, code, msg string) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(`{"success":false,"error":{"code":"` + code + `","message":"` + msg + `"}}`)
}
