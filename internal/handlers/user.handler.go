package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
)

type UserService interface {
	Profile(ctx context.Context, identity *auth.Identity) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, identity *auth.Identity, req model.UpdateProfileRequest) (*model.UserProfile, error)
}

type OnboardingService interface {
	Onboard(ctx context.Context, identity *auth.Identity, req model.OnboardRequest) (*model.Business, error)
}

type PlacesService interface {
	Search(ctx context.Context, query string) ([]model.Place, error)
}

type SetupStatusChecker interface {
	Check(ctx context.Context, businessID string) model.SetupStatus
}

// UserHandler serves routes that need an identity but not yet a business.
type UserHandler struct {
	users      UserService
	onboarding OnboardingService
	places     PlacesService
	setup      SetupStatusChecker
	loader     BusinessContextLoader
	resp       *Responder
}

func RegisterUserRoutes(g *router.Group, h *UserHandler) {
	g.GET("/users/me", h.GetProfile)
	g.PUT("/users/me", h.UpdateProfile)
	g.POST("/onboarding", h.Onboard)
	g.GET("/places/search", h.SearchPlaces)
	g.GET("/setup-status", h.SetupStatus)
}

func NewUserHandler(users UserService, onboarding OnboardingService, places PlacesService, setup SetupStatusChecker, loader BusinessContextLoader, resp *Responder) *UserHandler {
	return &UserHandler{users: users, onboarding: onboarding, places: places, setup: setup, loader: loader, resp: resp}
}

func (h *UserHandler) GetProfile(ctx *xhttp.RequestCtx) {
	p, err := h.users.Profile(ctx, identityFrom(ctx))
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(ctx *xhttp.RequestCtx) {
	var req model.UpdateProfileRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	p, err := h.users.UpdateProfile(ctx, identityFrom(ctx), req)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, p)
}

func (h *UserHandler) Onboard(ctx *xhttp.RequestCtx) {
	var req model.OnboardRequest
	if err := readJSON(ctx, &req); err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	b, err := h.onboarding.Onboard(ctx, identityFrom(ctx), req)
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusCreated, b)
}

func (h *UserHandler) SearchPlaces(ctx *xhttp.RequestCtx) {
	places, err := h.places.Search(ctx, query(ctx, "q"))
	if err != nil {
		h.resp.Fail(ctx, err)
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, places)
}

// SetupStatus is advisory. Callers without a usable business get an
// incomplete status; unexpected failures fail open.
func (h *UserHandler) SetupStatus(ctx *xhttp.RequestCtx) {
	bc, err := h.loader.Load(ctx, identityFrom(ctx))
	if err != nil {
		switch {
		case apperr.IsKind(err, apperr.KindUnauthenticated):
			h.resp.Fail(ctx, err)
		case apperr.IsKind(err, apperr.KindForbidden):
			h.resp.OK(ctx, xhttp.StatusOK, model.SetupStatus{})
		default:
			h.resp.OK(ctx, xhttp.StatusOK, model.SetupStatus{IsComplete: true})
		}
		return
	}
	h.resp.OK(ctx, xhttp.StatusOK, h.setup.Check(ctx, bc.BusinessID()))
}
