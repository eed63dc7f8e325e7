package session

import (
	"net/url"
	"strings"
	"time"

	"opsdash/internal/identity"
	"opsdash/internal/profile"
	id "opsdash/pkg/domain"
)

// State is the lifecycle state of one browser context.
type State int

const (
	// StateUnauthenticated means no user is published.
	StateUnauthenticated State = iota
	// StateEvaluating is the transient state entered on every trigger.
	StateEvaluating
	// StateProvisional means an optimistically accepted user is published,
	// usable with default privileges while the profile hydrates.
	StateProvisional
	// StateResolved means the published user carries its stored profile.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateEvaluating:
		return "evaluating"
	case StateProvisional:
		return "provisional"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// User is the merged session identity exposed to the rest of the
// application. Values are immutable once published: the engine replaces the
// whole value, never mutates it in place, so readers can never observe a
// torn merge.
type User struct {
	ID           id.UserID         `json:"id"`
	Email        string            `json:"email"`
	DisplayName  string            `json:"display_name,omitempty"`
	LastSignInAt time.Time         `json:"last_sign_in_at,omitzero"`
	Username     string            `json:"username,omitempty"`
	Privilege    profile.Privilege `json:"privilege"`
	Department   string            `json:"department,omitempty"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	Provisional  bool              `json:"provisional"`
}

// provisionalUser builds the optimistically accepted user from provider
// claims alone: default privilege, no profile fields.
func provisionalUser(claims identity.Claims) *User {
	return &User{
		ID:           claims.UserID,
		Email:        claims.Email,
		DisplayName:  claims.DisplayName,
		LastSignInAt: claims.LastSignInAt,
		Privilege:    profile.PrivilegeViewer,
		Provisional:  true,
	}
}

// resolvedUser merges provider claims with the stored profile.
func resolvedUser(claims identity.Claims, p *profile.Profile) *User {
	u := &User{
		ID:           claims.UserID,
		Email:        claims.Email,
		DisplayName:  claims.DisplayName,
		LastSignInAt: claims.LastSignInAt,
		Username:     p.Username,
		Privilege:    p.Privilege,
		Department:   p.Department,
		AvatarURL:    p.AvatarURL,
		Provisional:  false,
	}
	if p.Name != "" {
		u.DisplayName = p.Name
	}
	return u
}

// NoticeKind classifies the terminal side-channel notices.
type NoticeKind string

const (
	NoticeAccountGone        NoticeKind = "account_gone"
	NoticeAccountDeactivated NoticeKind = "account_deactivated"
)

// Notice is a one-shot user-facing message for the two terminal rejections.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// IsRecoveryFragment reports whether a URL fragment forwarded by the client
// marks a password-recovery deep link. Such a navigation must never silently
// authenticate the visitor.
func IsRecoveryFragment(fragment string) bool {
	fragment = strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(fragment)
	if err != nil {
		// Unparseable fragments cannot attest recovery.
		return false
	}
	return values.Get("type") == "recovery"
}
