package middleware

import (
	"net/http"
	"runtime/debug"

	"qrmarket/internal/logs"
	"qrmarket/internal/models"
)

// Recoverer turns a handler panic into a logged stack trace and a 500
// problem+json response carrying the request id.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqid := GetRequestID(r)
			logs.Logger.Errorf("panic: %v reqid=%s uri=%s method=%s\nstack:\n%s",
				rec, reqid, r.RequestURI, r.Method, string(debug.Stack()))
			models.WriteProblem(w, http.StatusInternalServerError,
				"Internal Server Error", "unexpected server error", reqid)
		}()
		next.ServeHTTP(w, r)
	})
}

// SecureHeaders sets the browser hardening headers every page gets.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
