// Package session implements the per-browser-context authentication state
// machine: deciding whether a visitor is signed in, how much to trust the
// session, and what profile data to attach, while staying responsive when
// the backends behind those answers are slow or down.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/platform/metrics"
	"opsdash/internal/profile"
	"opsdash/internal/push"
	"opsdash/internal/tabstate"
	id "opsdash/pkg/domain"
	"opsdash/pkg/platform/sentinel"
	"opsdash/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/identity.go -package=mocks -mock_names=Client=MockIdentityClient opsdash/internal/identity Client
//go:generate mockgen -destination=mocks/profile.go -package=mocks -mock_names=Store=MockProfileStore opsdash/internal/profile Store
//go:generate mockgen -destination=mocks/audit.go -package=mocks -mock_names=Recorder=MockAuditRecorder opsdash/internal/audit Recorder
//go:generate mockgen -destination=mocks/push.go -package=mocks -mock_names=Trigger=MockPushTrigger opsdash/internal/push Trigger
//go:generate mockgen -destination=mocks/tabstate.go -package=mocks -mock_names=Store=MockTabStore opsdash/internal/tabstate Store

const signOutTimeout = 5 * time.Second

// Deps are the collaborators behind one Manager.
type Deps struct {
	Identity identity.Client
	Profiles profile.Store
	Tabs     tabstate.Store
	Audits   audit.Recorder
	Push     push.Trigger
}

// Manager runs the session lifecycle for a single browser context. All
// evaluation passes are serialized; readers observe an atomic snapshot that
// only ever changes wholesale.
type Manager struct {
	ctxID    id.ContextID
	deps     Deps
	timeouts Timeouts
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time
	tracer   trace.Tracer

	baseCtx     context.Context
	cancelBase  context.CancelFunc
	unsubscribe func()

	evalMu sync.Mutex // held for the duration of a pass

	mu             sync.Mutex // guards everything below
	epoch          uint64
	state          State
	user           *User
	notice         *Notice
	retry          *task
	auditedSession string
	triggerMeta    requestMeta
	closed         bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeouts overrides the gate budgets, mainly for tests.
func WithTimeouts(t Timeouts) Option {
	return func(m *Manager) { m.timeouts = t }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics attaches gateway metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// WithClock injects the time source used for username suffixing.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager builds a manager for one browser context and subscribes it to
// provider events. Callers own its lifetime and must Close it.
func NewManager(ctxID id.ContextID, deps Deps, opts ...Option) *Manager {
	baseCtx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctxID:      ctxID,
		deps:       deps,
		timeouts:   DefaultTimeouts(),
		logger:     slog.Default(),
		clock:      time.Now,
		tracer:     otel.Tracer("opsdash/internal/session"),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		state:      StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("ctx_id", ctxID.String())
	m.unsubscribe = deps.Identity.Subscribe(m.onEvent)
	return m
}

// Close tears the manager down: unsubscribes from provider events, cancels
// any pending hydration retry and stops background work.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.mu.Lock()
	m.closed = true
	m.epoch++
	m.retry.Cancel()
	m.retry = nil
	m.mu.Unlock()
	m.cancelBase()
}

// Snapshot is the consumer-facing view of the state machine.
type Snapshot struct {
	State   State `json:"state"`
	User    *User `json:"user,omitempty"`
	Loading bool  `json:"loading"`
}

// Snapshot returns the current published state. The returned User is shared
// and must be treated as read-only; the engine never mutates a published
// value in place.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:   m.state,
		User:    m.user,
		Loading: m.state == StateEvaluating,
	}
}

// TakeNotice returns the pending terminal notice, if any, and clears it so
// it surfaces exactly once.
func (m *Manager) TakeNotice() *Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.notice
	m.notice = nil
	return n
}

// Bootstrap runs a startup-trigger evaluation pass: the page-load path.
// recoveryHint marks a password-recovery deep link; it arms the persistent
// recovery marker before the pass so reloads stay gated too.
func (m *Manager) Bootstrap(ctx context.Context, recoveryHint bool) Snapshot {
	if recoveryHint {
		if err := m.deps.Tabs.SetRecovery(ctx, m.ctxID); err != nil {
			m.logger.Warn("arming recovery marker failed", "error", err)
		}
	}
	m.evaluate(cause{kind: causeStartup, recoveryHint: recoveryHint, meta: metaFromContext(ctx)})
	return m.Snapshot()
}

// onEvent is the provider subscription handler. It must not block, so the
// pass runs on its own goroutine; evalMu keeps passes serialized.
func (m *Manager) onEvent(ev identity.Event) {
	if ev.ContextID != m.ctxID {
		return
	}
	go m.evaluate(cause{kind: causeEvent, event: ev.Kind})
}

type causeKind int

const (
	causeStartup causeKind = iota
	causeEvent
)

// requestMeta is the request-scoped metadata stamped onto audit entries.
// Captured at the trigger because the entry itself may be recorded much
// later, from a background hydration whose request is long gone.
type requestMeta struct {
	device    string
	requestID string
}

func metaFromContext(ctx context.Context) requestMeta {
	return requestMeta{
		device:    requestcontext.Device(ctx),
		requestID: requestcontext.RequestID(ctx),
	}
}

// cause describes what triggered an evaluation pass. Internal hydration
// retries do not re-run the pass; they continue the hydration directly.
type cause struct {
	kind         causeKind
	event        identity.EventKind
	recoveryHint bool
	meta         requestMeta
}

func (c cause) label() string {
	if c.kind == causeStartup {
		return "startup"
	}
	return "event:" + string(c.event)
}

// genuine reports whether this trigger represents an interactive sign-in as
// opposed to session restoration on reload or a token refresh.
func (c cause) genuine() bool {
	return c.kind == causeEvent &&
		(c.event == identity.EventSignedIn || c.event == identity.EventMFAVerified)
}

// evaluate runs one full pass of the transition algorithm. Passes are
// serialized: a trigger arriving mid-pass waits its turn and then observes
// whatever state the previous pass left behind.
func (m *Manager) evaluate(c cause) {
	m.evalMu.Lock()
	defer m.evalMu.Unlock()

	ctx, span := m.tracer.Start(m.baseCtx, "session.evaluate",
		trace.WithAttributes(attribute.String("session.trigger", c.label())))
	defer span.End()

	// Open the pass: bump the epoch so any in-flight hydration from a
	// previous pass is superseded, and remember what was published in case a
	// startup error has to leave it untouched.
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.epoch++
	epoch := m.epoch
	prevState := m.state
	prevUser := m.user
	m.retry.Cancel()
	m.retry = nil
	m.state = StateEvaluating
	// Provider events arrive without a request of their own; their audit
	// entries inherit the metadata of the last trigger that had one, which
	// for a login sequence is the login request itself.
	if c.meta == (requestMeta{}) {
		c.meta = m.triggerMeta
	} else {
		m.triggerMeta = c.meta
	}
	m.mu.Unlock()

	final := m.runPass(ctx, c, epoch, prevState, prevUser)
	span.SetAttributes(attribute.String("session.state", final.String()))
	if m.metrics != nil {
		m.metrics.Evaluations.WithLabelValues(final.String()).Inc()
	}
}

// runPass executes the gate sequence and returns the state the pass
// converged to, for observability only; the snapshot is already published.
func (m *Manager) runPass(ctx context.Context, c cause, epoch uint64, prevState State, prevUser *User) State {
	log := m.logger.With("trigger", c.label())

	// Recovery gate: a password-recovery navigation never authenticates.
	inRecovery := c.recoveryHint
	if !inRecovery {
		flagged, err := m.deps.Tabs.InRecovery(ctx, m.ctxID)
		if err != nil {
			log.Warn("recovery marker check failed", "error", err)
		}
		inRecovery = flagged
	}
	if inRecovery {
		log.Info("session rejected: recovery navigation")
		return m.publish(epoch, StateUnauthenticated, nil)
	}

	sess, err := m.deps.Identity.CurrentSession(ctx, m.ctxID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNoSession) {
			return m.publish(epoch, StateUnauthenticated, nil)
		}
		// Transient lookup failure. At startup an already-published user
		// survives it; the same failure on a live provider event clears the
		// user, because the event said the session changed and we can no
		// longer tell into what.
		log.Warn("session lookup failed", "error", err)
		if c.kind == causeStartup && prevUser != nil {
			return m.publish(epoch, prevState, prevUser)
		}
		return m.publish(epoch, StateUnauthenticated, nil)
	}

	if !m.passMFAGate(ctx, c, log) {
		log.Info("session rejected: second factor not verified")
		return m.publish(epoch, StateUnauthenticated, nil)
	}

	live, ok := m.passLivenessGate(ctx, log)
	if !ok {
		// The provider definitively no longer knows this identity: the
		// cached session is a ghost. Terminal.
		m.rejectTerminal(epoch, sess.Claims, NoticeAccountGone, c.meta,
			"Your account no longer exists. Contact an administrator.")
		return StateUnauthenticated
	}
	if live != nil {
		sess.Claims = *live
	}

	if m.deletionConfirmed(ctx, sess.Claims.UserID, log) {
		m.rejectTerminal(epoch, sess.Claims, NoticeAccountDeactivated, c.meta,
			"Your account has been deactivated. Contact an administrator.")
		return StateUnauthenticated
	}

	// Optimistic acceptance: publish immediately with default privileges and
	// hydrate the profile in the background.
	final := m.publish(epoch, StateProvisional, provisionalUser(sess.Claims))
	go m.runHydration(&hydration{epoch: epoch, session: sess, genuine: c.genuine(), meta: c.meta})
	return final
}

// passMFAGate returns false only on a positive answer that the account is
// MFA-enrolled but this session never verified a second factor. Timeouts
// and errors let the session through: availability must not depend on the
// factor service.
func (m *Manager) passMFAGate(ctx context.Context, c cause, log *slog.Logger) bool {
	if c.event == identity.EventMFAVerified {
		return true
	}
	verified, err := m.deps.Tabs.BackupCodeVerified(ctx, m.ctxID)
	if err != nil {
		log.Warn("backup-code marker check failed", "error", err)
	}
	if verified {
		return true
	}

	start := m.clock()
	gctx, cancel := context.WithTimeout(ctx, m.timeouts.MFAGate)
	defer cancel()

	var (
		level   identity.AssuranceLevel
		factors []identity.Factor
	)
	g, gctx := errgroup.WithContext(gctx)
	g.Go(func() error {
		var err error
		level, err = m.deps.Identity.AssuranceLevel(gctx, m.ctxID)
		return err
	})
	g.Go(func() error {
		var err error
		factors, err = m.deps.Identity.ListFactors(gctx, m.ctxID)
		return err
	})
	err = g.Wait()
	m.observeGate("mfa", start)
	if err != nil {
		log.Warn("mfa gate inconclusive, proceeding", "error", err)
		return true
	}
	if identity.HasVerifiedFactor(factors) && level != identity.AssuranceLevel2 {
		return false
	}
	return true
}

// passLivenessGate re-fetches the identity behind the cached session. A
// definitive not-found is terminal (ok=false); a transport failure or
// timeout proceeds with the cached claims (live=nil, ok=true).
func (m *Manager) passLivenessGate(ctx context.Context, log *slog.Logger) (*identity.Claims, bool) {
	start := m.clock()
	gctx, cancel := context.WithTimeout(ctx, m.timeouts.Liveness)
	defer cancel()

	claims, err := m.deps.Identity.Lookup(gctx, m.ctxID)
	m.observeGate("liveness", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false
		}
		log.Warn("liveness check inconclusive, proceeding", "error", err)
		return nil, true
	}
	return &claims, true
}

// deletionConfirmed returns true only on a positive soft-delete answer.
// Errors and timeouts are swallowed: hydration re-checks later anyway.
func (m *Manager) deletionConfirmed(ctx context.Context, userID id.UserID, log *slog.Logger) bool {
	gctx, cancel := context.WithTimeout(ctx, m.timeouts.Deletion)
	defer cancel()

	status, err := m.deps.Profiles.DeletionStatus(gctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			log.Warn("deletion check inconclusive, proceeding", "error", err)
		}
		return false
	}
	return status.Deleted()
}

// publish installs a new snapshot unless the pass has been superseded.
// Returns the state actually in effect afterwards.
func (m *Manager) publish(epoch uint64, state State, user *User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return m.state
	}
	m.state = state
	m.user = user
	return state
}

// rejectTerminal is the shared tail of the two confirmed-dead outcomes:
// force a remote sign-out everywhere, clear the local session and park a
// one-shot notice for the UI.
func (m *Manager) rejectTerminal(epoch uint64, claims identity.Claims, kind NoticeKind, meta requestMeta, msg string) {
	sctx, cancel := context.WithTimeout(m.baseCtx, signOutTimeout)
	defer cancel()
	if err := m.deps.Identity.SignOut(sctx, m.ctxID, identity.ScopeGlobal); err != nil &&
		!errors.Is(err, sentinel.ErrNoSession) {
		m.logger.Warn("forced sign-out failed", "error", err)
	}

	m.mu.Lock()
	if epoch == m.epoch {
		m.state = StateUnauthenticated
		m.user = nil
		m.notice = &Notice{Kind: kind, Message: msg}
		m.retry.Cancel()
		m.retry = nil
		m.triggerMeta = requestMeta{}
	}
	m.mu.Unlock()

	m.logger.Info("session terminated", "reason", string(kind), "user_id", claims.UserID.String())
	if m.metrics != nil {
		m.metrics.Deactivations.Inc()
	}
	if m.deps.Audits != nil {
		action := audit.ActionAccountDeactivated
		if kind == NoticeAccountGone {
			action = audit.ActionAccountGone
		}
		m.deps.Audits.Record(m.baseCtx, audit.Event{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Action:    action,
			Device:    meta.device,
			RequestID: meta.requestID,
		})
	}
}

func (m *Manager) observeGate(gate string, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.GateDuration.WithLabelValues(gate).Observe(m.clock().Sub(start).Seconds())
}
