package session

import (
	"context"
	"errors"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/profile"
	dErrors "opsdash/pkg/domain-errors"
	"opsdash/pkg/platform/sentinel"
)

// Login signs the context in with the provider and runs a sign-in
// evaluation pass before returning, so the caller observes the converged
// state. The provider may also deliver its own signed_in event; the extra
// pass is harmless because sign-in side effects are deduplicated per
// provider session.
func (m *Manager) Login(ctx context.Context, email, password string) (Snapshot, error) {
	if _, err := m.deps.Identity.SignIn(ctx, m.ctxID, email, password); err != nil {
		return m.Snapshot(), err
	}
	m.evaluate(cause{kind: causeEvent, event: identity.EventSignedIn, meta: metaFromContext(ctx)})
	return m.Snapshot(), nil
}

// Logout tears the session down. The local clear is synchronous and
// unconditional: published user gone and retry cancelled before the first
// network call, so no hydration can resurrect the session afterwards.
// Remote sign-out is attempted narrow first, then broad; its failures are
// logged, never surfaced, and a provider that already lost the session
// counts as success.
func (m *Manager) Logout(ctx context.Context) Snapshot {
	m.mu.Lock()
	m.epoch++
	wasResolved := m.state == StateResolved
	prev := m.user
	m.state = StateUnauthenticated
	m.user = nil
	m.retry.Cancel()
	m.retry = nil
	m.triggerMeta = requestMeta{}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.Logouts.Inc()
	}
	// Only a resolved session produced a sign-in entry, so only a resolved
	// session closes one.
	if wasResolved && prev != nil && m.deps.Audits != nil {
		meta := metaFromContext(ctx)
		m.deps.Audits.Record(ctx, audit.Event{
			UserID:    prev.ID,
			Email:     prev.Email,
			Action:    audit.ActionSignedOut,
			Device:    meta.device,
			RequestID: meta.requestID,
		})
	}

	err := m.deps.Identity.SignOut(ctx, m.ctxID, identity.ScopeLocal)
	if err != nil && !errors.Is(err, sentinel.ErrNoSession) {
		m.logger.Warn("scoped sign-out failed, retrying broad", "error", err)
		err = m.deps.Identity.SignOut(ctx, m.ctxID, identity.ScopeGlobal)
	}
	if err != nil && !errors.Is(err, sentinel.ErrNoSession) {
		m.logger.Warn("remote sign-out failed, local session already cleared", "error", err)
	}
	return m.Snapshot()
}

// UpdateProfile patches the stored profile of the signed-in user and
// refreshes the published snapshot with the result.
func (m *Manager) UpdateProfile(ctx context.Context, patch profile.Patch) (*profile.Profile, error) {
	m.mu.Lock()
	u := m.user
	m.mu.Unlock()
	if u == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no signed-in user")
	}

	updated, err := m.deps.Profiles.Update(ctx, u.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "username already taken")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "profile not found")
		default:
			return nil, err
		}
	}

	// Re-publish with the fresh profile unless the session moved on while
	// the update was in flight.
	m.mu.Lock()
	if m.user != nil && m.user.ID == updated.ID {
		claims := identity.Claims{
			UserID:       m.user.ID,
			Email:        m.user.Email,
			DisplayName:  m.user.DisplayName,
			LastSignInAt: m.user.LastSignInAt,
		}
		m.user = resolvedUser(claims, updated)
		m.state = StateResolved
	}
	m.mu.Unlock()
	return updated, nil
}

// EnterRecovery arms the recovery marker for this context and drops any
// published session, mirroring what a recovery deep link does.
func (m *Manager) EnterRecovery(ctx context.Context) error {
	if err := m.deps.Tabs.SetRecovery(ctx, m.ctxID); err != nil {
		return err
	}
	m.evaluate(cause{kind: causeStartup, recoveryHint: true, meta: metaFromContext(ctx)})
	return nil
}

// ExitRecovery clears the marker once the password flow finished; the next
// trigger evaluates normally.
func (m *Manager) ExitRecovery(ctx context.Context) error {
	return m.deps.Tabs.ClearRecovery(ctx, m.ctxID)
}

// MarkBackupCodeVerified records a backup-code sign-in. The provider's
// assurance level never reflects backup codes, so the marker is what lets
// the trust gate pass; it is consumed when the session resolves.
func (m *Manager) MarkBackupCodeVerified(ctx context.Context) error {
	if err := m.deps.Tabs.SetBackupCodeVerified(ctx, m.ctxID); err != nil {
		return err
	}
	go m.evaluate(cause{kind: causeEvent, event: identity.EventMFAVerified, meta: metaFromContext(ctx)})
	return nil
}
