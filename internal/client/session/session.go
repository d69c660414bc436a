// Package session keeps the authentication state of the CLI: the current
// access token, the signed-in user and whether the initial verification has
// finished.
//
// The access token is also persisted as a small JSON blob in the local
// metadata table so a restarted CLI can resume the session. The refresh token
// is never seen here; the backend keeps it in an HttpOnly cookie that only the
// HTTP client's cookie jar handles.
//
// Session is safe for concurrent use. The HTTP client reads it through
// AccessToken; only the auth service mutates it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/stockkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ErrSessionChanged is returned when a token update is dropped because the
// session was cleared or re-established after the caller read Generation.
var ErrSessionChanged = errors.New("session changed")

type Session struct {
	mu      sync.RWMutex
	token   string
	user    *models.User
	state   State
	loading bool
	// gen changes on every Establish and Clear.
	gen uint64

	// writeMu serialises mutations together with their database writes so a
	// late token write cannot land after a Clear.
	writeMu sync.Mutex
	repo    metadata.Repository
}

// New returns a session in the Unknown state with loading set.
func New(repo metadata.Repository) *Session {
	return &Session{repo: repo, loading: true}
}

// AccessToken returns the current access token or "" when there is none.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Generation identifies the current session. It changes on every Establish
// and Clear.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetAccessToken replaces the current token and persists it.
func (s *Session) SetAccessToken(ctx context.Context, token string) error {
	return s.SetAccessTokenIf(ctx, s.Generation(), token)
}

// SetAccessTokenIf is SetAccessToken for a token obtained while gen was the
// current generation. When the session has moved on since, nothing is stored
// and ErrSessionChanged is returned.
func (s *Session) SetAccessTokenIf(ctx context.Context, gen uint64, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrSessionChanged
	}
	s.token = token
	s.mu.Unlock()

	return s.persist(ctx, token)
}

// Establish stores the token and the user and marks the session authenticated.
func (s *Session) Establish(ctx context.Context, user models.User, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.state = Authenticated
	s.gen++
	s.mu.Unlock()

	return s.persist(ctx, token)
}

// Clear forgets the token and the user, removes the persisted blob and moves
// the session to Unauthenticated. In-memory state is cleared even when the
// database write fails.
func (s *Session) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked(ctx)
}

// ClearIf is Clear for the session of generation gen. A session established
// since is left alone.
func (s *Session) ClearIf(ctx context.Context, gen uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Generation() != gen {
		return nil
	}
	return s.clearLocked(ctx)
}

func (s *Session) clearLocked(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.state = Unauthenticated
	s.gen++
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, common.TokensMetadataKey); err != nil {
		return fmt.Errorf("failed to remove persisted tokens: %w", err)
	}
	return nil
}

// Load reads the persisted token into memory and returns it. It returns ""
// when nothing was persisted.
func (s *Session) Load(ctx context.Context) (string, error) {
	raw, err := s.repo.Get(ctx, common.TokensMetadataKey)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}

	var tokens models.Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return "", fmt.Errorf("failed to decode persisted tokens: %w", err)
	}

	s.mu.Lock()
	s.token = tokens.Access
	s.mu.Unlock()

	return tokens.Access, nil
}

func (s *Session) persist(ctx context.Context, token string) error {
	raw, err := json.Marshal(models.Tokens{Access: token})
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := s.repo.Set(ctx, common.TokensMetadataKey, raw); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	return nil
}

// SetUser replaces the profile and marks the session authenticated.
func (s *Session) SetUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.state = Authenticated
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// MarkLoaded clears the loading flag. A session still in Unknown becomes
// Unauthenticated.
func (s *Session) MarkLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.state == Unknown {
		s.state = Unauthenticated
	}
}

// TokenExpiry decodes the exp claim of the current access token. The
// signature is not checked; the backend is the only verifier.
func (s *Session) TokenExpiry() (time.Time, error) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, common.ErrInvalidToken
	}
	return exp.Time, nil
}
