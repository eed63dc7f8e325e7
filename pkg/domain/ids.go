// Package domain holds the typed identifiers shared across the gateway.
//
// IDs are distinct types over uuid.UUID so the compiler rejects a context ID
// where a user ID is expected. Parse helpers enforce the invariant that IDs
// are valid, non-nil UUIDs at trust boundaries (HTTP, provider payloads).
package domain

import (
	"github.com/google/uuid"

	dErrors "opsdash/pkg/domain-errors"
)

// UserID identifies an account at the identity provider and the matching
// profile row. The two share the same ID space.
type UserID uuid.UUID

// ContextID identifies one browser context (tab) talking to the gateway.
type ContextID uuid.UUID

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewContextID() ContextID { return ContextID(uuid.New()) }

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ContextID) String() string { return uuid.UUID(id).String() }

func (id ContextID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses and validates an ID from its canonical form.
func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText renders the ID in canonical UUID form for JSON and logs.
func (id ContextID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses and validates an ID from its canonical form.
func (id *ContextID) UnmarshalText(b []byte) error {
	parsed, err := ParseContextID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user id")
	return UserID(u), err
}

// ParseContextID parses and validates a browser-context ID.
func ParseContextID(s string) (ContextID, error) {
	u, err := parse(s, "context id")
	return ContextID(u), err
}

func parse(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be nil")
	}
	return u, nil
}
