// Package credentials keeps the session token and the browser-session id in
// signed cookies.
package credentials

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	keyToken   = "token"
	keyEmail   = "email"
	keyRole    = "role"
	keyBrowser = "bid"
)

// Credential is what survives between requests for a signed-in browser.
type Credential struct {
	Token string
	Email string
	Role  string
}

type Options struct {
	TokenCookie   string
	BrowserCookie string
	MaxAge        time.Duration // token lifetime
	Secure        bool          // false only in local development
}

type Store struct {
	cookies *sessions.CookieStore
	opts    Options
}

func New(secret []byte, opts Options) *Store {
	return &Store{cookies: sessions.NewCookieStore(secret), opts: opts}
}

func (s *Store) tokenSession(r *http.Request) *sessions.Session {
	// a cookie that fails to decode yields a fresh, empty session
	sess, _ := s.cookies.Get(r, s.opts.TokenCookie)
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(s.opts.MaxAge / time.Second),
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	return sess
}

// browserSession lives until the browser closes, like sessionStorage.
func (s *Store) browserSession(r *http.Request) *sessions.Session {
	sess, _ := s.cookies.Get(r, s.opts.BrowserCookie)
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return sess
}

// Get returns the stored credential, if a token is present.
func (s *Store) Get(r *http.Request) (Credential, bool) {
	sess := s.tokenSession(r)
	tok, _ := sess.Values[keyToken].(string)
	if tok == "" {
		return Credential{}, false
	}
	email, _ := sess.Values[keyEmail].(string)
	role, _ := sess.Values[keyRole].(string)
	return Credential{Token: tok, Email: email, Role: role}, true
}

// Set writes the credential with the configured expiry.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, c Credential) error {
	sess := s.tokenSession(r)
	sess.Values[keyToken] = c.Token
	sess.Values[keyEmail] = c.Email
	sess.Values[keyRole] = c.Role
	return sess.Save(r, w)
}

func (s *Store) Remove(w http.ResponseWriter, r *http.Request) error {
	sess := s.tokenSession(r)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// BrowserID returns the id keying this browser's drafts, issuing one if needed.
func (s *Store) BrowserID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := s.browserSession(r)
	if id, ok := sess.Values[keyBrowser].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[keyBrowser] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// AddFlash queues a one-shot success message for the next page.
func (s *Store) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	sess := s.browserSession(r)
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// Flashes pops queued messages.
func (s *Store) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := s.browserSession(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
