// internal/session/session.go
//
// Identity lifecycle. The identity (token + user) is the only state a
// logout removes: per-user progress/path caches deliberately survive so a
// re-login renders instantly even offline. That asymmetry is policy carried
// over from the web client, not an oversight.

package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/cache"
	"github.com/kindrove/pathway/internal/model"
)

// Cache layout for the identity entry, kept compatible with the keys the
// web client keeps in localStorage.
const (
	nsIdentity = "identity"
	keyToken   = "token"
	keyUser    = "user"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginForm struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=4"`
}

type registerForm struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=6"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// Session owns the signed-in identity. The bearer token and the 401
// teardown hook are wired into the api client at construction.
type Session struct {
	client *api.Client
	store  *cache.Store
	log    *zap.Logger

	mu       sync.RWMutex
	identity *model.Identity
	expired  bool
}

// New builds a session and wires it into the client.
func New(client *api.Client, store *cache.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{client: client, store: store, log: log}
	client.SetTokenFunc(s.Token)
	client.SetUnauthorizedHook(s.expire)
	return s
}

// Resume restores the identity persisted by a previous run. Returns false
// when there is nothing to restore.
func (s *Session) Resume() bool {
	var token string
	if _, err := s.store.GetJSON(nsIdentity, keyToken, &token); err != nil || token == "" {
		return false
	}
	var id model.Identity
	if _, err := s.store.GetJSON(nsIdentity, keyUser, &id); err != nil || id.Username == "" {
		return false
	}
	id.Token = token

	s.mu.Lock()
	s.identity = &id
	s.expired = false
	s.mu.Unlock()
	s.log.Info("session resumed", zap.String("username", id.Username))
	return true
}

// Login validates credentials locally, exchanges them remotely and persists
// the identity.
func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := validate.Struct(loginForm{username, password}); err != nil {
		return friendlyValidation(err)
	}

	id, err := s.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.adopt(id)
	return nil
}

// Register creates an account. The caller logs in afterwards; the backend
// does not auto-issue a token on registration.
func (s *Session) Register(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if err := validate.Struct(registerForm{username, password, confirm}); err != nil {
		return friendlyValidation(err)
	}
	return s.client.Register(ctx, username, password)
}

// ForgotPassword starts the reset flow.
func (s *Session) ForgotPassword(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return api.ValidationError("username is required")
	}
	return s.client.ForgotPassword(ctx, username)
}

// Logout discards the identity. Only the identity: per-user caches stay.
func (s *Session) Logout() {
	s.mu.Lock()
	username := ""
	if s.identity != nil {
		username = s.identity.Username
	}
	s.identity = nil
	s.expired = false
	s.mu.Unlock()

	if err := s.store.Delete(nsIdentity, keyToken); err != nil {
		s.log.Warn("logout: drop token entry", zap.Error(err))
	}
	if err := s.store.Delete(nsIdentity, keyUser); err != nil {
		s.log.Warn("logout: drop user entry", zap.Error(err))
	}
	s.log.Info("logged out", zap.String("username", username))
}

// Current returns the signed-in identity, if any.
func (s *Session) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// Username is a convenience for cache key derivation.
func (s *Session) Username() string {
	id, ok := s.Current()
	if !ok {
		return ""
	}
	return id.Username
}

// Token returns the bearer token, or "" when signed out. Consulted by the
// api client on every request.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

// IsAdmin reports whether the signed-in user may see the admin screens.
// Display gating only; the backend still answers 403 on its own authority.
func (s *Session) IsAdmin() bool {
	id, ok := s.Current()
	return ok && id.IsAdmin()
}

// Expired reports whether the backend rejected the token since the last
// login or resume. The TUI polls this to bounce back to the login screen.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// TokenExpired peeks at the token's exp claim without verifying the
// signature. Signature verification is the backend's job; this only
// pre-empts requests that are certain to 401. Tokens without a parseable
// exp claim count as live.
func (s *Session) TokenExpired() bool {
	token := s.Token()
	if token == "" {
		return true
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// adopt installs and persists a fresh identity.
func (s *Session) adopt(id model.Identity) {
	s.mu.Lock()
	s.identity = &id
	s.expired = false
	s.mu.Unlock()

	if err := s.store.Set(nsIdentity, keyToken, id.Token); err != nil {
		s.log.Warn("persist token", zap.Error(err))
	}
	// The token is stored separately; the user entry holds only profile bits.
	persisted := id
	persisted.Token = ""
	if err := s.store.Set(nsIdentity, keyUser, persisted); err != nil {
		s.log.Warn("persist user", zap.Error(err))
	}
	s.log.Info("logged in", zap.String("username", id.Username), zap.String("role", id.Role))
}

// expire is the 401 hook: the backend declared the session dead.
func (s *Session) expire() {
	s.mu.Lock()
	s.identity = nil
	s.expired = true
	s.mu.Unlock()

	_ = s.store.Delete(nsIdentity, keyToken)
	_ = s.store.Delete(nsIdentity, keyUser)
	s.log.Warn("session expired, identity cleared")
}

// friendlyValidation turns the first validator failure into a message fit
// for an inline form error.
func friendlyValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return api.ValidationError("invalid input")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return api.ValidationError("%s is required", field)
	case "min":
		return api.ValidationError("%s must be at least %s characters", field, fe.Param())
	case "max":
		return api.ValidationError("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return api.ValidationError("passwords do not match")
	default:
		return api.ValidationError("%s is invalid", field)
	}
}
