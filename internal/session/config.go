package session

import "time"

// Timeouts bounds every network interaction the evaluation pass makes, plus
// the hydration retry cadence. The gate budgets are deliberately short: a
// slow backend must degrade the answer, never block it.
type Timeouts struct {
	// MFAGate bounds the combined assurance-level and factor queries.
	MFAGate time.Duration
	// Liveness bounds the provider existence check.
	Liveness time.Duration
	// Deletion bounds the soft-delete status lookup.
	Deletion time.Duration
	// RetryInitial is the delay before the first hydration retry.
	RetryInitial time.Duration
	// RetryInterval is the delay between subsequent hydration retries.
	RetryInterval time.Duration
	// RetryMax caps the number of hydration retries before the engine gives
	// up and leaves the user provisional.
	RetryMax int
}

// DefaultTimeouts returns the production gate budgets.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		MFAGate:       5 * time.Second,
		Liveness:      3 * time.Second,
		Deletion:      3 * time.Second,
		RetryInitial:  2 * time.Second,
		RetryInterval: 10 * time.Second,
		RetryMax:      5,
	}
}
