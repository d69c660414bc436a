package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/client/session"
	"github.com/dmitrijs2005/stockkeeper/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Init: verify a persisted token once at start-up.
//   - Login/Register: obtain a session; failures come back as *AuthFailure.
//   - Logout: end the session locally even when the backend is unreachable.
//   - Refresh: obtain a new access token; clears the session on failure.
//     The HTTP client calls it on a 401.
type AuthService interface {
	Init(ctx context.Context)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context)
	Refresh(ctx context.Context) error
	Ping(ctx context.Context) error

	IsAuthenticated() bool
	CurrentUser() *models.User
	Loading() bool
	State() session.State
	TokenExpiry() (time.Time, error)
}

type authService struct {
	api     AuthAPI
	session *session.Session
	log     logging.Logger
}

func NewAuthService(api AuthAPI, sess *session.Session, log logging.Logger) AuthService {
	return &authService{api: api, session: sess, log: log.With("component", "auth")}
}

func (a *authService) Init(ctx context.Context) {
	defer a.session.MarkLoaded()

	token, err := a.session.Load(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to load persisted session", "error", err)
		a.clear(ctx)
		return
	}
	if token == "" {
		return
	}

	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		a.log.Info(ctx, "persisted session rejected", "error", err)
		a.clear(ctx)
		return
	}
	a.session.SetUser(*user)
}

func (a *authService) Login(ctx context.Context, username, password string) error {
	resp, err := a.api.Login(ctx, username, password)
	if err != nil {
		return &AuthFailure{Msg: Describe(err, "Login failed", "username", "password"), Err: err}
	}
	a.establish(ctx, resp)
	return nil
}

func (a *authService) Register(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &AuthFailure{Msg: Describe(ErrEmailRequired, ""), Err: ErrEmailRequired}
	}

	resp, err := a.api.Register(ctx, username, email, password)
	if err != nil {
		return &AuthFailure{Msg: Describe(err, "Registration failed", "username", "email", "password"), Err: err}
	}
	a.establish(ctx, resp)
	return nil
}

func (a *authService) establish(ctx context.Context, resp *models.AuthResponse) {
	if err := a.session.Establish(ctx, resp.User, resp.Tokens.Access); err != nil {
		a.log.Warn(ctx, "session is not persisted", "error", err)
	}
	a.session.MarkLoaded()
	a.log.Info(ctx, "signed in", "username", resp.User.Username)
}

func (a *authService) Logout(ctx context.Context) {
	if err := a.api.Logout(ctx); err != nil {
		a.log.Warn(ctx, "logout request failed", "error", err)
	}
	a.clear(ctx)
}

// Refresh obtains a new access token. The session is cleared when the
// backend rejects the refresh or cannot be reached. It is kept when the
// caller gave up (ctx cancelled or past its deadline) or when the session
// was ended or replaced while the refresh was in flight.
func (a *authService) Refresh(ctx context.Context) error {
	gen := a.session.Generation()

	token, err := a.api.RefreshAccessToken(ctx)
	if err == nil && token == "" {
		err = errors.New("empty access token")
	}
	if err != nil {
		if ctx.Err() != nil {
			a.log.Info(ctx, "token refresh abandoned", "error", err)
			return fmt.Errorf("refresh access token: %w", err)
		}
		a.log.Warn(ctx, "token refresh failed, clearing session", "error", err)
		if err := a.session.ClearIf(ctx, gen); err != nil {
			a.log.Warn(ctx, "failed to clear persisted session", "error", err)
		}
		return fmt.Errorf("refresh access token: %w", err)
	}

	if err := a.session.SetAccessTokenIf(ctx, gen, token); err != nil {
		if errors.Is(err, session.ErrSessionChanged) {
			a.log.Info(ctx, "refreshed token dropped, session changed")
			return fmt.Errorf("refresh access token: %w", err)
		}
		a.log.Warn(ctx, "refreshed token is not persisted", "error", err)
	}
	a.log.Debug(ctx, "access token refreshed")
	return nil
}

func (a *authService) clear(ctx context.Context) {
	if err := a.session.Clear(ctx); err != nil {
		a.log.Warn(ctx, "failed to clear persisted session", "error", err)
	}
}

func (a *authService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}

func (a *authService) IsAuthenticated() bool {
	return a.session.State() == session.Authenticated
}

func (a *authService) CurrentUser() *models.User {
	return a.session.User()
}

func (a *authService) Loading() bool {
	return a.session.Loading()
}

func (a *authService) State() session.State {
	return a.session.State()
}

func (a *authService) TokenExpiry() (time.Time, error) {
	return a.session.TokenExpiry()
}
