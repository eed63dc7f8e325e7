// Package tabstate holds the transient per-browser-context markers the
// session engine consults: the password-recovery flag and the one-shot
// backup-code-verified flag.
//
// Both are short-lived tab-session state, not configuration. The backup-code
// flag is read on every gate pass but consumed only once the user reaches a
// resolved session, so it survives the intermediate events of a single
// login sequence.
package tabstate

import (
	"context"
	"time"

	id "opsdash/pkg/domain"
)

// DefaultTTL bounds how long a marker can outlive the tab that set it.
const DefaultTTL = time.Hour

// Store is the marker persistence contract.
type Store interface {
	SetRecovery(ctx context.Context, ctxID id.ContextID) error
	InRecovery(ctx context.Context, ctxID id.ContextID) (bool, error)
	ClearRecovery(ctx context.Context, ctxID id.ContextID) error

	SetBackupCodeVerified(ctx context.Context, ctxID id.ContextID) error
	BackupCodeVerified(ctx context.Context, ctxID id.ContextID) (bool, error)
	ConsumeBackupCode(ctx context.Context, ctxID id.ContextID) error
}
