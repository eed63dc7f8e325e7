package session

import (
	"context"
	"errors"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/profile"
	"opsdash/pkg/platform/sentinel"
)

// hydration is one background profile fetch tied to the evaluation pass
// that started it. A newer pass or a logout bumps the epoch and orphans it;
// an orphaned hydration discards its result instead of publishing.
type hydration struct {
	epoch   uint64
	session *identity.Session
	genuine bool
	meta    requestMeta
	attempt int
}

// runHydration fetches the stored profile for the provisional user and
// upgrades the session to resolved. The first attempt runs with no timeout
// of its own; failures are retried on a schedule rather than blocking
// anything.
func (m *Manager) runHydration(h *hydration) {
	if !m.current(h.epoch) {
		return
	}
	claims := h.session.Claims

	p, err := m.deps.Profiles.Find(m.baseCtx, claims.UserID)
	switch {
	case err == nil:
		m.completeHydration(h, p)

	case errors.Is(err, sentinel.ErrNotFound):
		// Find hides deactivated rows, so not-found is ambiguous: the row
		// may be absent (first login) or soft-deleted after the pass's
		// pre-acceptance check. Only DeletionStatus can tell them apart.
		status, derr := m.deps.Profiles.DeletionStatus(m.baseCtx, claims.UserID)
		switch {
		case derr == nil && status.Deleted():
			m.rejectTerminal(h.epoch, claims, NoticeAccountDeactivated, h.meta,
				"Your account has been deactivated. Contact an administrator.")
		case derr == nil || errors.Is(derr, sentinel.ErrNotFound):
			m.createFirstProfile(h)
		default:
			m.logger.Warn("deletion re-check failed during hydration", "error", derr)
			m.scheduleRetry(h)
		}

	default:
		m.logger.Warn("profile hydration failed", "error", err, "attempt", h.attempt)
		m.scheduleRetry(h)
	}
}

// createFirstProfile provisions the profile row on first login. A username
// uniqueness conflict gets exactly one retry with a time suffix; if that
// fails too the session resolves against a synthesized viewer profile so
// the user is not locked out by a provisioning hiccup.
func (m *Manager) createFirstProfile(h *hydration) {
	claims := h.session.Claims
	base := profile.DeriveUsername(claims.Email)
	name := claims.DisplayName
	if name == "" {
		name = base
	}
	row := &profile.Profile{
		ID:        claims.UserID,
		Name:      name,
		Username:  base,
		Privilege: profile.PrivilegeViewer,
	}

	created, err := m.deps.Profiles.Insert(m.baseCtx, row)
	if errors.Is(err, sentinel.ErrConflict) {
		row.Username = profile.SuffixUsername(base, m.clock())
		created, err = m.deps.Profiles.Insert(m.baseCtx, row)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			m.logger.Warn("profile creation kept conflicting, resolving with synthesized profile",
				"username", row.Username)
			m.completeHydration(h, row)
			return
		}
		m.logger.Warn("profile creation failed", "error", err)
		m.scheduleRetry(h)
		return
	}
	m.completeHydration(h, created)
}

// completeHydration publishes the resolved user and runs the once-per-login
// side effects: consuming the backup-code marker, auditing the sign-in and
// poking the push-subscription reconciler.
func (m *Manager) completeHydration(h *hydration, p *profile.Profile) {
	claims := h.session.Claims

	m.mu.Lock()
	if h.epoch != m.epoch {
		m.mu.Unlock()
		return
	}
	m.state = StateResolved
	m.user = resolvedUser(claims, p)
	m.retry.Cancel()
	m.retry = nil
	firstResolve := h.genuine && m.auditedSession != h.session.ID
	if firstResolve {
		m.auditedSession = h.session.ID
	}
	m.mu.Unlock()

	// The marker survives every intermediate pass of a login sequence and is
	// consumed only here, on the resolved outcome.
	if err := m.deps.Tabs.ConsumeBackupCode(m.baseCtx, m.ctxID); err != nil {
		m.logger.Warn("consuming backup-code marker failed", "error", err)
	}

	if !firstResolve {
		return
	}
	if m.metrics != nil {
		m.metrics.Logins.Inc()
	}
	if m.deps.Audits != nil {
		m.deps.Audits.Record(m.baseCtx, audit.Event{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Action:    audit.ActionSignedIn,
			Device:    h.meta.device,
			RequestID: h.meta.requestID,
		})
	}
	if m.deps.Push != nil {
		go func() {
			ctx, cancel := context.WithTimeout(m.baseCtx, signOutTimeout)
			defer cancel()
			if err := m.deps.Push.EnsureSubscribed(ctx, claims.UserID, claims.Email); err != nil {
				m.logger.Warn("push-subscription trigger failed", "error", err)
			}
		}()
	}
}

// scheduleRetry arms the next hydration attempt: once after the short
// initial delay, then on the slow interval until the cap. Exhaustion leaves
// the session provisional; a later trigger starts a fresh pass anyway.
func (m *Manager) scheduleRetry(h *hydration) {
	h.attempt++
	if h.attempt > m.timeouts.RetryMax {
		m.logger.Warn("profile hydration retries exhausted, staying provisional",
			"attempts", h.attempt-1)
		return
	}
	delay := m.timeouts.RetryInterval
	if h.attempt == 1 {
		delay = m.timeouts.RetryInitial
	}
	if m.metrics != nil {
		m.metrics.HydrationRetries.Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h.epoch != m.epoch || m.closed {
		return
	}
	m.retry = schedule(delay, func() { m.runHydration(h) })
}

// current reports whether an epoch still owns the published snapshot.
func (m *Manager) current(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return epoch == m.epoch && !m.closed
}
