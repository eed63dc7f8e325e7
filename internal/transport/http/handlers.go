package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/profile"
	"opsdash/internal/session"
	id "opsdash/pkg/domain"
	dErrors "opsdash/pkg/domain-errors"
	"opsdash/pkg/requestcontext"
)

// sessionResponse is the envelope every session-shaped endpoint returns.
type sessionResponse struct {
	State   string          `json:"state"`
	User    *session.User   `json:"user,omitempty"`
	Loading bool            `json:"loading"`
	Notice  *session.Notice `json:"notice,omitempty"`
}

func (h *Handler) manager(r *http.Request) (*session.Manager, error) {
	ctxID := requestcontext.ContextID(r.Context())
	if ctxID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "missing browser context")
	}
	mgr := h.registry.Get(ctxID)
	if mgr == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "gateway shutting down")
	}
	return mgr, nil
}

func respond(w http.ResponseWriter, status int, snap session.Snapshot, notice *session.Notice) {
	writeJSON(w, status, sessionResponse{
		State:   snap.State.String(),
		User:    snap.User,
		Loading: snap.Loading,
		Notice:  notice,
	})
}

// handleSession returns the current snapshot. bootstrap=1 runs a startup
// evaluation pass first, the page-load path; the client forwards the URL
// fragment so recovery deep links are recognized.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snap := mgr.Snapshot()
	if r.URL.Query().Get("bootstrap") == "1" {
		recovery := session.IsRecoveryFragment(r.URL.Query().Get("fragment"))
		snap = mgr.Bootstrap(r.Context(), recovery)
	}
	respond(w, http.StatusOK, snap, mgr.TakeNotice())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	snap, err := mgr.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, snap, mgr.TakeNotice())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := mgr.Logout(r.Context())
	respond(w, http.StatusOK, snap, nil)
}

type profileRequest struct {
	Name       *string `json:"name"`
	Username   *string `json:"username"`
	Department *string `json:"department"`
	AvatarURL  *string `json:"avatar_url"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "username cannot be empty"))
		return
	}

	if _, err := mgr.UpdateProfile(r.Context(), profile.Patch{
		Name:       req.Name,
		Username:   req.Username,
		Department: req.Department,
		AvatarURL:  req.AvatarURL,
	}); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, mgr.Snapshot(), nil)
}

type recoveryRequest struct {
	Action string `json:"action"`
}

// handleRecovery arms or clears the password-recovery marker for this
// browser context.
func (h *Handler) handleRecovery(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	switch req.Action {
	case "enter":
		err = mgr.EnterRecovery(r.Context())
	case "exit":
		err = mgr.ExitRecovery(r.Context())
	default:
		err = dErrors.New(dErrors.CodeInvalidInput, "action must be enter or exit")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, mgr.Snapshot(), nil)
}

func (h *Handler) handleBackupCode(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := mgr.MarkBackupCodeVerified(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleAudit lists the signed-in user's activity trail.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	mgr, err := h.manager(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := mgr.Snapshot()
	if snap.User == nil {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "no signed-in user"))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}
	var actions []audit.Action
	for _, raw := range r.URL.Query()["action"] {
		actions = append(actions, audit.Action(raw))
	}

	events, err := h.audits.ListByUser(r.Context(), snap.User.ID, limit, actions...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type eventRequest struct {
	Type        string `json:"type"`
	ContextID   string `json:"ctx_id"`
	AccessToken string `json:"access_token"`
}

// handleEvents ingests provider webhook events and fans them out to the
// session managers through the provider client.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" && r.Header.Get("X-Webhook-Secret") != h.webhookSecret {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook secret"))
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	kind := identity.EventKind(req.Type)
	switch kind {
	case identity.EventSignedIn, identity.EventSignedOut,
		identity.EventTokenRefreshed, identity.EventMFAVerified:
	default:
		writeError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown event type %q", req.Type))
		return
	}
	ctxID, err := id.ParseContextID(req.ContextID)
	if err != nil {
		writeError(w, err)
		return
	}

	ev := identity.Event{Kind: kind, ContextID: ctxID}
	if kind != identity.EventSignedOut {
		if req.AccessToken == "" {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "access_token is required"))
			return
		}
		sess, err := h.events.SessionFromToken(req.AccessToken)
		if err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unusable access token"))
			return
		}
		ev.Session = sess
	}

	h.events.Deliver(ev)
	w.WriteHeader(http.StatusAccepted)
}
