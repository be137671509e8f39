package auth

import (
	"context"
	"errors"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type SessionGetter interface {
	Get(ctx context.Context, token string) (*Identity, error)
}

// Resolver turns a session token into an Identity. Role claims come from the
// admin list injected at startup.
type Resolver struct {
	sessions SessionGetter
	admins   map[string]struct{}
}

func NewResolver(sessions SessionGetter, adminIDs []string) *Resolver {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Resolver{sessions: sessions, admins: admins}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	identity, err := r.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.Error("failed to resolve session", "error", err)
		}
		return nil, apperr.Unauthenticated("authentication required")
	}
	if _, ok := r.admins[identity.ProviderUserID]; ok && !identity.HasRole(RoleAdmin) {
		identity.Roles = append(identity.Roles, RoleAdmin)
	}
	return identity, nil
}
