package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"qrmarket/internal/logs"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// secretParams never reach the access log.
var secretParams = []string{"token"}

func logURI(r *http.Request) string {
	q := r.URL.Query()
	redacted := false
	for _, k := range secretParams {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return r.URL.RequestURI()
	}
	u := url.URL{Path: r.URL.Path, RawPath: r.URL.RawPath, RawQuery: q.Encode()}
	return u.RequestURI()
}

// LoggerMW writes one access line per request. Health probes log at debug.
func LoggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(sw, r)

		entry := logs.Logger.WithFields(logrus.Fields{
			"reqid":  GetRequestID(r),
			"method": r.Method,
			"uri":    logURI(r),
			"status": sw.status,
			"bytes":  sw.bytes,
			"dur":    time.Since(start).String(),
			"ip":     r.RemoteAddr,
			"ua":     r.UserAgent(),
		})
		switch {
		case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
			entry.Debug("request")
		case sw.status >= 500:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}
