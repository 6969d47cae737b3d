// Package session resolves who is signed in for a request and owns the
// login, signup and logout transitions.
package session

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/credentials"
	"qrmarket/internal/logs"
	"qrmarket/internal/middleware"
	"qrmarket/internal/models"
	"qrmarket/internal/signup"
)

// Session is the per-request view of the signed-in user. Handlers read it;
// only Manager mutates it.
type Session struct {
	User      *models.User
	Token     string
	BrowserID string
}

func (s *Session) Authenticated() bool { return s != nil && s.Token != "" }

// Context returns ctx carrying the session's bearer token for backend calls.
func (s *Session) Context(ctx context.Context) context.Context {
	if s == nil || s.Token == "" {
		return ctx
	}
	return apiclient.WithToken(ctx, s.Token)
}

type ctxKey struct{}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	if s == nil {
		return &Session{}
	}
	return s
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Authenticator is the login call of the auth service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
}

type Manager struct {
	creds *credentials.Store
	auth  Authenticator
	flow  *signup.Flow

	// OnChange runs after the signed-in user of a browser changes.
	OnChange func(browserID string)
}

func NewManager(creds *credentials.Store, auth Authenticator, flow *signup.Flow) *Manager {
	return &Manager{creds: creds, auth: auth, flow: flow}
}

// Hydrate builds the session from the credential cookie. It is run once per
// request by Middleware.
func (m *Manager) Hydrate(w http.ResponseWriter, r *http.Request) (*Session, error) {
	bid, err := m.creds.BrowserID(w, r)
	if err != nil {
		return nil, err
	}
	s := &Session{BrowserID: bid}
	cred, ok := m.creds.Get(r)
	if !ok {
		return s, nil
	}
	s.Token = cred.Token
	if cred.Email != "" {
		s.User = &models.User{Email: cred.Email, Role: cred.Role}
	} else {
		s.User = userFromClaims(cred.Token)
	}
	return s, nil
}

// userFromClaims reads email and role from the token payload. The signature
// is not checked here; the backend does that on every call.
func userFromClaims(token string) *models.User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil
	}
	role, _ := claims["role"].(string)
	return &models.User{Email: email, Role: role}
}

// Middleware hydrates the session and stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Hydrate(w, r)
		if err != nil {
			logs.Logger.WithFields(logrus.Fields{
				"reqid": middleware.GetRequestID(r),
			}).Warnf("session hydrate: %v", err)
			s = &Session{}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Login authenticates and persists the credential cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, s *Session, email, password string) error {
	resp, err := m.auth.Login(r.Context(), email, password)
	if err != nil {
		return err
	}
	if err := m.creds.Set(w, r, credentials.Credential{Token: resp.Token, Email: resp.Email, Role: resp.Role}); err != nil {
		return err
	}
	s.Token = resp.Token
	s.User = &models.User{Email: resp.Email, Role: resp.Role}
	m.changed(s.BrowserID)
	return nil
}

// Signup starts account creation for this browser. No token is issued until
// the user signs in after the last step.
func (m *Manager) Signup(ctx context.Context, s *Session, email, firstName, lastName string) (models.SignupDraft, error) {
	return m.flow.Register(ctx, s.BrowserID, email, firstName, lastName)
}

// Logout forgets the credential locally; the backend is not called.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.creds.Remove(w, r); err != nil {
		return err
	}
	s.Token = ""
	s.User = nil
	m.changed(s.BrowserID)
	return nil
}

func (m *Manager) changed(browserID string) {
	if m.OnChange != nil {
		m.OnChange(browserID)
	}
}
