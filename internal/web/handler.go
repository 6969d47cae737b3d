package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"qrmarket/internal/apiclient"
	"qrmarket/internal/logs"
	"qrmarket/internal/middleware"
	"qrmarket/internal/session"
	"qrmarket/internal/signup"
	"qrmarket/internal/validate"
)

const (
	msgNetwork       = "Unable to reach the server. Please try again."
	msgSignupExpired = "Your signup session has expired. Please start again"
)

type Handler struct {
	d   Dependencies
	t   pageTemplates
	now func() time.Time
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *Handler) redirect(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

// seeOther finishes a successful POST.
func seeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	h.renderStatus(w, r, http.StatusOK, page, data)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	t, ok := h.t[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Session"] = session.FromContext(r.Context())
	data["Now"] = h.clock()
	data["Flashes"] = h.d.Creds.Flashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log(r).Errorf("render %s: %v", page, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if err := h.d.Creds.AddFlash(w, r, msg); err != nil {
		h.log(r).Warnf("flash: %v", err)
	}
}

func (h *Handler) log(r *http.Request) *logrus.Entry {
	return logs.Logger.WithField("reqid", middleware.GetRequestID(r))
}

// userMessage is what a banner shows for err. Validation and backend
// messages are shown verbatim; transport details stay in the log.
func (h *Handler) userMessage(r *http.Request, err error) string {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, signup.ErrOutOfStep) {
		return msgSignupExpired
	}
	var ae *apiclient.APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		h.log(r).Warnf("backend timeout: %v", err)
		return msgNetwork
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		h.log(r).Warnf("backend transport: %v", err)
		return msgNetwork
	}
	return err.Error()
}

// apiCtx returns the request context carrying the session's bearer token.
func apiCtx(r *http.Request) context.Context {
	return session.FromContext(r.Context()).Context(r.Context())
}

func sess(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}

// requireAuth sends visitors without a token to the login page and brings
// them back afterwards.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sess(r).Authenticated() {
			target := r.URL.Path
			if r.Method == http.MethodGet && r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			code := http.StatusFound
			if r.Method != http.MethodGet {
				code = http.StatusSeeOther
			}
			http.Redirect(w, r, "/login?returnUrl="+url.QueryEscape(target), code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authed(fn http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(fn).ServeHTTP
}

// safeReturnURL keeps redirects on this site.
func safeReturnURL(raw string) string {
	const fallback = "/dashboard"
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}

func form(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}
