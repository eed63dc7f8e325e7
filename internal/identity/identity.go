// Package identity wraps the hosted identity provider.
//
// The session engine consumes the Client interface only; the concrete
// implementations are an HTTP client against the provider's REST surface and
// an in-memory provider used for development and tests.
package identity

import (
	"context"
	"time"

	id "opsdash/pkg/domain"
)

// Claims is the immutable per-session identity produced by the provider.
type Claims struct {
	UserID       id.UserID
	Email        string
	DisplayName  string // derived from provider user metadata, may be empty
	LastSignInAt time.Time
	Handle       string // raw provider subject handle
}

// Session is a live provider session for one browser context.
type Session struct {
	ID          string
	AccessToken string
	ExpiresAt   time.Time
	Claims      Claims
}

// AssuranceLevel is the provider-reported trust tier for the current
// session. Level2 means a second factor was verified in this session.
type AssuranceLevel string

const (
	AssuranceLevel1 AssuranceLevel = "aal1"
	AssuranceLevel2 AssuranceLevel = "aal2"
)

// Factor is an enrolled MFA factor.
type Factor struct {
	ID       string
	Kind     string
	Verified bool
}

// SignOutScope selects how much provider state a sign-out destroys.
type SignOutScope string

const (
	// ScopeLocal destroys only the current context's session.
	ScopeLocal SignOutScope = "local"
	// ScopeGlobal destroys every session for the account.
	ScopeGlobal SignOutScope = "global"
)

// EventKind classifies provider push events.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventMFAVerified    EventKind = "mfa_verified"
)

// Event is a provider push event scoped to one browser context.
type Event struct {
	Kind      EventKind
	ContextID id.ContextID
	Session   *Session // nil for signed_out
}

// Handler receives provider events. Handlers must not block; the session
// engine hands events to its own serialized evaluation path.
type Handler func(Event)

// Client is the provider contract consumed by the session engine.
//
// Error conventions (see pkg/platform/sentinel):
//   - CurrentSession returns ErrNoSession when the context has no session.
//   - Lookup returns ErrNotFound when the provider no longer knows the
//     identity (deleted-but-cached session). Transport failures are returned
//     as ordinary errors and treated as transient by the caller.
//   - SignOut returns ErrNoSession when there was nothing to destroy.
type Client interface {
	CurrentSession(ctx context.Context, ctxID id.ContextID) (*Session, error)
	SignIn(ctx context.Context, ctxID id.ContextID, email, password string) (*Session, error)
	SignOut(ctx context.Context, ctxID id.ContextID, scope SignOutScope) error
	AssuranceLevel(ctx context.Context, ctxID id.ContextID) (AssuranceLevel, error)
	ListFactors(ctx context.Context, ctxID id.ContextID) ([]Factor, error)
	Lookup(ctx context.Context, ctxID id.ContextID) (Claims, error)
	Subscribe(h Handler) (unsubscribe func())
}

// HasVerifiedFactor reports whether any enrolled factor has been verified,
// i.e. the account is MFA-enrolled and the gate applies.
func HasVerifiedFactor(factors []Factor) bool {
	for _, f := range factors {
		if f.Verified {
			return true
		}
	}
	return false
}
