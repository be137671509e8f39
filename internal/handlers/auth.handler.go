package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/valyala/fasthttp"
)

const stateCookie = "rr_oauth_state"

type Authenticator interface {
	AuthorizationURL(state string) (string, error)
	Callback(ctx context.Context, code string) (string, *auth.Identity, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	authn      Authenticator
	resp       *Responder
	sessionTTL time.Duration
	secure     bool
}

func RegisterAuthRoutes(r *router.Router, h *AuthHandler) {
	g := r.Group("/auth")
	g.GET("/login", h.Login)
	g.GET("/callback", h.Callback)
	g.POST("/logout", h.Logout)
}

func NewAuthHandler(authn Authenticator, resp *Responder, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{authn: authn, resp: resp, sessionTTL: sessionTTL, secure: secure}
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	state := uuid.NewString()
	target, err := h.authn.AuthorizationURL(state)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.setCookie(ctx, stateCookie, state, 10*time.Minute)
	ctx.Redirect(target, xhttp.StatusFound)
}

func (h *AuthHandler) Callback(ctx *xhttp.RequestCtx) {
	state := query(ctx, "state")
	if state == "" || state != string(ctx.Request.Header.Cookie(stateCookie)) {
		h.resp.Fail(ctx, apperr.Unauthenticated("invalid login state").WithCode("INVALID_STATE"))
		return
	}
	code := query(ctx, "code")
	if code == "" {
		h.resp.Fail(ctx, apperr.Validation("missing authorization code", nil))
		return
	}

	token, identity, err := h.authn.Callback(ctx, code)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	logger.Info("user signed in", "provider_user_id", identity.ProviderUserID)

	h.setCookie(ctx, stateCookie, "", -1)
	h.setCookie(ctx, auth.SessionCookie, token, h.sessionTTL)
	h.resp.OK(ctx, xhttp.StatusOK, map[string]any{"token": token, "identity": identity})
}

func (h *AuthHandler) Logout(ctx *xhttp.RequestCtx) {
	if err := h.authn.Logout(ctx, auth.TokenFromRequest(ctx)); err != nil {
		logger.Warn("failed to drop session", "error", err)
	}
	h.setCookie(ctx, auth.SessionCookie, "", -1)
	h.resp.OK(ctx, xhttp.StatusOK, map[string]bool{"loggedOut": true})
}

func (h *AuthHandler) setCookie(ctx *xhttp.RequestCtx, name, value string, ttl time.Duration) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(name)
	c.SetValue(value)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(h.secure)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	if ttl < 0 {
		c.SetExpire(fasthttp.CookieExpireDelete)
	} else {
		c.SetMaxAge(int(ttl.Seconds()))
	}
	ctx.Response.Header.SetCookie(c)
}
