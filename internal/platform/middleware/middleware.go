// Package middleware carries the transport middleware shared by every
// route: request identity, browser-context binding and request logging.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mssola/useragent"

	id "opsdash/pkg/domain"
	"opsdash/pkg/requestcontext"
)

// ContextCookie is the cookie carrying the browser-context ID. One browser
// context maps to one session manager on the gateway.
const ContextCookie = "opsdash_ctx"

// ContextHeader lets non-browser clients pin a context explicitly.
const ContextHeader = "X-Context-ID"

// RequestMeta stamps the request context with a request ID, the client IP
// and a parsed device summary for audit entries.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		w.Header().Set("X-Request-ID", requestID)

		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ctx = requestcontext.WithClientIP(ctx, host)
		}
		ctx = requestcontext.WithDevice(ctx, deviceSummary(r.UserAgent()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BrowserContext resolves the browser-context ID from the header or cookie,
// minting one and setting the cookie when the visitor has none yet.
func BrowserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, ok := contextIDFromRequest(r)
		if !ok {
			ctxID = id.NewContextID()
			http.SetCookie(w, &http.Cookie{
				Name:     ContextCookie,
				Value:    ctxID.String(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := requestcontext.WithContextID(r.Context(), ctxID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextIDFromRequest(r *http.Request) (id.ContextID, bool) {
	if raw := r.Header.Get(ContextHeader); raw != "" {
		if ctxID, err := id.ParseContextID(raw); err == nil {
			return ctxID, true
		}
	}
	if cookie, err := r.Cookie(ContextCookie); err == nil {
		if ctxID, err := id.ParseContextID(cookie.Value); err == nil {
			return ctxID, true
		}
	}
	return id.ContextID{}, false
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestcontext.RequestID(r.Context()),
				"client_ip", requestcontext.ClientIP(r.Context()),
			)
		})
	}
}

// deviceSummary condenses a User-Agent string into the short form stored on
// audit entries, e.g. "Chrome 126 on Linux".
func deviceSummary(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ua
	}
	out := name
	if version != "" {
		if i := strings.IndexByte(version, '.'); i > 0 {
			version = version[:i]
		}
		out += " " + version
	}
	if os := parsed.OS(); os != "" {
		out += " on " + os
	}
	return out
}
