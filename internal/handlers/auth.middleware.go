package handlers

import (
	"context"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

const (
	identityKey        = "identity"
	businessContextKey = "business_context"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

type BusinessContextLoader interface {
	Load(ctx context.Context, identity *auth.Identity) (*model.BusinessContext, error)
}

// Guard authenticates every non public request and exposes the identity and
// business context to handlers.
type Guard struct {
	resolver IdentityResolver
	loader   BusinessContextLoader
	resp     *Responder
}

func NewGuard(resolver IdentityResolver, loader BusinessContextLoader, resp *Responder) *Guard {
	return &Guard{resolver: resolver, loader: loader, resp: resp}
}

// Authenticate is installed on the engine. Paths outside the public set
// without a valid session get 401.
func (g *Guard) Authenticate(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		if auth.IsPublicPath(string(ctx.Path())) {
			next(ctx)
			return
		}
		identity, err := g.resolver.Resolve(ctx, auth.TokenFromRequest(ctx))
		if err != nil {
			g.resp.Fail(ctx, err)
			return
		}
		ctx.SetUserValue(identityKey, identity)
		next(ctx)
	}
}

// Business wraps a tenant scoped handler. The business context is loaded on
// every request.
func (g *Guard) Business(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		identity := identityFrom(ctx)
		if identity == nil {
			g.resp.Fail(ctx, apperr.Unauthenticated("authentication required"))
			return
		}
		bc, err := g.loader.Load(ctx, identity)
		if err != nil {
			g.resp.Fail(ctx, err)
			return
		}
		ctx.SetUserValue(businessContextKey, bc)
		next(ctx)
	}
}

func (g *Guard) Admin(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		identity := identityFrom(ctx)
		if identity == nil {
			g.resp.Fail(ctx, apperr.Unauthenticated("authentication required"))
			return
		}
		if !identity.HasRole(auth.RoleAdmin) {
			g.resp.Fail(ctx, apperr.Forbidden("admin role required"))
			return
		}
		next(ctx)
	}
}

func identityFrom(ctx *xhttp.RequestCtx) *auth.Identity {
	identity, _ := ctx.UserValue(identityKey).(*auth.Identity)
	return identity
}

func businessFrom(ctx *xhttp.RequestCtx) *model.BusinessContext {
	bc, _ := ctx.UserValue(businessContextKey).(*model.BusinessContext)
	return bc
}
