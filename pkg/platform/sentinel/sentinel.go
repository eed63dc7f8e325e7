package sentinel

import "errors"

// Sentinel errors for infrastructure and provider facts. Clients and stores
// return these (optionally wrapped) so the session engine can translate them
// into lifecycle outcomes without string matching.
//
// These represent factual states, not validation failures:
// - ErrNotFound: entity does not exist in the store or at the provider
// - ErrNoSession: the provider has no session for this context
// - ErrConflict: uniqueness violation on insert
// - ErrDeactivated: the profile carries a soft-delete marker
// - ErrAssuranceTooLow: an enrolled second factor has not been satisfied
// - ErrUnavailable: service or resource temporarily unreachable
var (
	ErrNotFound        = errors.New("not found")
	ErrNoSession       = errors.New("no session")
	ErrConflict        = errors.New("conflict")
	ErrDeactivated     = errors.New("deactivated")
	ErrAssuranceTooLow = errors.New("assurance too low")
	ErrUnavailable     = errors.New("unavailable")
)
