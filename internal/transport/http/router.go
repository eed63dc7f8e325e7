// Package httptransport is the gateway's HTTP surface. Handlers stay thin:
// they translate requests into session-engine calls and engine errors into
// JSON envelopes, nothing more.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/platform/middleware"
	"opsdash/internal/session"
)

// EventSink ingests provider webhook events. The hosted-provider client
// implements it; local runs on the in-memory provider go without a webhook
// route.
type EventSink interface {
	Deliver(ev identity.Event)
	SessionFromToken(accessToken string) (*identity.Session, error)
}

// Handler bundles the gateway's HTTP dependencies.
type Handler struct {
	registry      *session.Registry
	audits        audit.Store
	events        EventSink
	webhookSecret string
	logger        *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithEventSink mounts the provider webhook route.
func WithEventSink(sink EventSink, secret string) HandlerOption {
	return func(h *Handler) {
		h.events = sink
		h.webhookSecret = secret
	}
}

// WithAuditStore mounts the activity listing route.
func WithAuditStore(store audit.Store) HandlerOption {
	return func(h *Handler) { h.audits = store }
}

// WithLogger sets the transport logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler builds the HTTP layer over the session registry.
func NewHandler(registry *session.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all routes and middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.BrowserContext)

		r.Get("/session", h.handleSession)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Patch("/profile", h.handleProfile)
		r.Post("/recovery", h.handleRecovery)
		r.Post("/mfa/backup-code", h.handleBackupCode)

		if h.audits != nil {
			r.Get("/audit", h.handleAudit)
		}
		if h.events != nil {
			r.Post("/events", h.handleEvents)
		}
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
