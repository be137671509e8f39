package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

var ErrInvalidCode = errors.New("invalid authorization code")

type WorkOSConfig struct {
	APIKey      string
	ClientID    string
	RedirectURI string
}

// CodeExchanger is the part of the WorkOS user management API used at login.
type CodeExchanger interface {
	AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
}

type workosExchanger struct{}

func (workosExchanger) AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
	return usermanagement.AuthenticateWithCode(ctx, opts)
}

type SessionCreator interface {
	Create(ctx context.Context, identity *Identity) (string, error)
	Delete(ctx context.Context, token string) error
}

type Authenticator struct {
	cfg       WorkOSConfig
	exchanger CodeExchanger
	sessions  SessionCreator
}

func NewAuthenticator(cfg WorkOSConfig, sessions SessionCreator) *Authenticator {
	if cfg.APIKey != "" {
		usermanagement.SetAPIKey(cfg.APIKey)
	}
	return &Authenticator{cfg: cfg, exchanger: workosExchanger{}, sessions: sessions}
}

// WithExchanger replaces the WorkOS client.
func (a *Authenticator) WithExchanger(e CodeExchanger) *Authenticator {
	a.exchanger = e
	return a
}

func (a *Authenticator) configured() error {
	if a.cfg.APIKey == "" || a.cfg.ClientID == "" {
		return apperr.Dependency(errors.New("workos is not configured"), "identity provider is not configured")
	}
	return nil
}

func (a *Authenticator) AuthorizationURL(state string) (string, error) {
	if err := a.configured(); err != nil {
		return "", err
	}
	u, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    a.cfg.ClientID,
		RedirectURI: a.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", apperr.Dependency(fmt.Errorf("generating authorization URL: %w", err), "identity provider error")
	}
	return u.String(), nil
}

// Callback exchanges the authorization code and opens a session. Users are
// provisioned lazily, not here.
func (a *Authenticator) Callback(ctx context.Context, code string) (string, *Identity, error) {
	if err := a.configured(); err != nil {
		return "", nil, err
	}
	if code == "" {
		return "", nil, apperr.Validation("missing authorization code", nil)
	}
	resp, err := a.exchanger.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: a.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		logger.Warn("failed to authenticate with code", "error", err)
		return "", nil, apperr.Wrap(apperr.KindUnauthenticated, ErrInvalidCode, "INVALID_CODE")
	}

	identity := &Identity{
		ProviderUserID: resp.User.ID,
		Email:          resp.User.Email,
		Name:           displayName(resp.User),
	}
	token, err := a.sessions.Create(ctx, identity)
	if err != nil {
		logger.Error("failed to create session", "error", err, "provider_user_id", identity.ProviderUserID)
		return "", nil, apperr.Internal(err, "failed to create session")
	}
	logger.Info("user authenticated", "provider_user_id", identity.ProviderUserID)
	return token, identity, nil
}

func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.sessions.Delete(ctx, token)
}

func displayName(u usermanagement.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}
