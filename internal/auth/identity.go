package auth

import (
	"slices"
	"strings"

	"github.com/valyala/fasthttp"
)

const (
	RoleAdmin = "admin"

	SessionCookie = "rr_session"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	ProviderUserID string   `json:"providerUserId"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Roles          []string `json:"roles,omitempty"`
}

func (i *Identity) HasRole(role string) bool {
	return i != nil && slices.Contains(i.Roles, role)
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(ctx *fasthttp.RequestCtx) string {
	if h := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return string(ctx.Request.Header.Cookie(SessionCookie))
}

var publicPrefixes = []string{"/r/", "/api/webhooks/", "/auth/"}

// IsPublicPath reports whether path is served without a session.
func IsPublicPath(path string) bool {
	switch path {
	case "/", "/api/health":
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
