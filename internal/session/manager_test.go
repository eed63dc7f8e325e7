package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/profile"
	"opsdash/internal/session"
	"opsdash/internal/tabstate"
	id "opsdash/pkg/domain"
	"opsdash/pkg/requestcontext"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testTimeouts() session.Timeouts {
	return session.Timeouts{
		MFAGate:       200 * time.Millisecond,
		Liveness:      150 * time.Millisecond,
		Deletion:      150 * time.Millisecond,
		RetryInitial:  20 * time.Millisecond,
		RetryInterval: 40 * time.Millisecond,
		RetryMax:      5,
	}
}

// directRecorder appends synchronously so tests can assert on the trail
// without racing the async sink.
type directRecorder struct {
	store *audit.MemoryStore
}

func (r directRecorder) Record(ctx context.Context, e audit.Event) {
	_ = r.store.Append(ctx, e)
}

type pushSpy struct {
	mu    sync.Mutex
	calls []id.UserID
}

func (p *pushSpy) EnsureSubscribed(ctx context.Context, userID id.UserID, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, userID)
	return nil
}

func (p *pushSpy) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fixture struct {
	provider *identity.MemoryProvider
	profiles *profile.MemoryStore
	tabs     *tabstate.MemoryStore
	audits   *audit.MemoryStore
	push     *pushSpy
	ctxID    id.ContextID
	mgr      *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider: identity.NewMemoryProvider(),
		profiles: profile.NewMemoryStore(),
		tabs:     tabstate.NewMemoryStore(),
		audits:   audit.NewMemoryStore(),
		push:     &pushSpy{},
		ctxID:    id.NewContextID(),
	}
	f.mgr = f.newManager(f.ctxID)
	t.Cleanup(f.mgr.Close)
	return f
}

func (f *fixture) newManager(ctxID id.ContextID) *session.Manager {
	return session.NewManager(ctxID, session.Deps{
		Identity: f.provider,
		Profiles: f.profiles,
		Tabs:     f.tabs,
		Audits:   directRecorder{store: f.audits},
		Push:     f.push,
	}, session.WithTimeouts(testTimeouts()))
}

func (f *fixture) addUser(t *testing.T, email string) id.UserID {
	t.Helper()
	userID, err := f.provider.AddUser(email, "s3cret", "Test User")
	require.NoError(t, err)
	return userID
}

func (f *fixture) seedProfile(t *testing.T, userID id.UserID, username string, priv profile.Privilege) {
	t.Helper()
	_, err := f.profiles.Insert(context.Background(), &profile.Profile{
		ID:        userID,
		Name:      "Stored Name",
		Username:  username,
		Privilege: priv,
	})
	require.NoError(t, err)
}

func (f *fixture) countAudit(action audit.Action) int {
	n := 0
	for _, e := range f.audits.All() {
		if e.Action == action {
			n++
		}
	}
	return n
}

func (f *fixture) lastAudit(t *testing.T, action audit.Action) audit.Event {
	t.Helper()
	var found *audit.Event
	for _, e := range f.audits.All() {
		if e.Action == action {
			ev := e
			found = &ev
		}
	}
	require.NotNil(t, found, "no %s audit entry recorded", action)
	return *found
}

func requireEventuallyState(t *testing.T, mgr *session.Manager, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mgr.Snapshot().State == want
	}, waitFor, tick, "state never reached %s", want)
}

func TestBootstrap_NoSession(t *testing.T) {
	f := newFixture(t)

	snap := f.mgr.Bootstrap(context.Background(), false)

	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)
	assert.Nil(t, f.mgr.TakeNotice())
}

func TestLogin_ResolvesStoredProfile(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeAdmin)

	snap, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, session.StateUnauthenticated, snap.State)

	requireEventuallyState(t, f.mgr, session.StateResolved)
	snap = f.mgr.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, userID, snap.User.ID)
	assert.Equal(t, "ada", snap.User.Username)
	assert.Equal(t, profile.PrivilegeAdmin, snap.User.Privilege)
	assert.Equal(t, "Stored Name", snap.User.DisplayName)
	assert.False(t, snap.User.Provisional)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "ada@example.com")

	snap, err := f.mgr.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, session.StateUnauthenticated, snap.State)
}

func TestLogin_SideEffectsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)

	// The provider emits its own signed_in event on top of the pass Login
	// runs itself; the sign-in side effects must still fire once.
	_, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	require.Eventually(t, func() bool { return f.push.count() == 1 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond) // give a duplicate a chance to appear
	assert.Equal(t, 1, f.countAudit(audit.ActionSignedIn))
	assert.Equal(t, 1, f.push.count())
}

func TestFirstLogin_CreatesProfile(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "Jane.Doe+ops@example.com")

	_, err := f.mgr.Login(context.Background(), "Jane.Doe+ops@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	stored, err := f.profiles.Find(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "jane.doeops", stored.Username)
	assert.Equal(t, profile.PrivilegeViewer, stored.Privilege)
	assert.Equal(t, "Test User", stored.Name)
}

func TestFirstLogin_UsernameConflictGetsSuffix(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, id.NewUserID(), "ada", profile.PrivilegeViewer)

	_, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	stored, err := f.profiles.Find(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, "ada", stored.Username)
	assert.Contains(t, stored.Username, "ada-")
}

func TestBootstrap_RestoresSessionWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)

	_, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)
	require.Eventually(t, func() bool { return f.push.count() == 1 }, waitFor, tick)

	// A reload builds a fresh manager over the same provider session.
	reloaded := f.newManager(f.ctxID)
	defer reloaded.Close()
	reloaded.Bootstrap(context.Background(), false)
	requireEventuallyState(t, reloaded, session.StateResolved)

	// Restoration is not a genuine sign-in.
	assert.Equal(t, 1, f.countAudit(audit.ActionSignedIn))
	assert.Equal(t, 1, f.push.count())
}

func TestMFAGate_EnrolledWithoutVerificationIsRejected(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.provider.EnrollFactor(userID, "totp")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)

	_, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	requireEventuallyState(t, f.mgr, session.StateUnauthenticated)
	time.Sleep(50 * time.Millisecond) // the trailing provider event must not flip it
	snap := f.mgr.Snapshot()
	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)
	// Rejection for a missing second factor is silent, not a terminal notice.
	assert.Nil(t, f.mgr.TakeNotice())
}

func TestMFAGate_VerificationEventResolves(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.provider.EnrollFactor(userID, "totp")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)

	_, err := f.mgr.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateUnauthenticated)

	f.provider.VerifyMFA(f.ctxID)
	requireEventuallyState(t, f.mgr, session.StateResolved)
}

func TestMFAGate_BackupCodeMarker(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.provider.EnrollFactor(userID, "totp")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateUnauthenticated)

	require.NoError(t, f.mgr.MarkBackupCodeVerified(ctx))
	requireEventuallyState(t, f.mgr, session.StateResolved)

	// The marker is one-shot: consumed by the resolved outcome.
	require.Eventually(t, func() bool {
		verified, err := f.tabs.BackupCodeVerified(ctx, f.ctxID)
		return err == nil && !verified
	}, waitFor, tick)
}

func TestLivenessGate_DeletedAccountIsTerminal(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	// Deleting the account leaves the issued session cached with the
	// provider: the ghost the liveness gate exists to catch.
	f.provider.DeleteUser(userID)

	reloaded := f.newManager(f.ctxID)
	defer reloaded.Close()
	snap := reloaded.Bootstrap(ctx, false)

	assert.Equal(t, session.StateUnauthenticated, snap.State)
	notice := reloaded.TakeNotice()
	require.NotNil(t, notice)
	assert.Equal(t, session.NoticeAccountGone, notice.Kind)
	// Surfaced exactly once.
	assert.Nil(t, reloaded.TakeNotice())

	// The forced sign-out destroyed the cached provider session.
	_, err = f.provider.CurrentSession(ctx, f.ctxID)
	require.Error(t, err)

	// A vanished identity is audited as such, not as a deactivation.
	assert.Equal(t, 1, f.countAudit(audit.ActionAccountGone))
	assert.Zero(t, f.countAudit(audit.ActionAccountDeactivated))
}

func TestDeletionGate_DeactivatedAccountIsTerminal(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	f.profiles.Deactivate(userID)

	reloaded := f.newManager(f.ctxID)
	defer reloaded.Close()
	snap := reloaded.Bootstrap(ctx, false)

	assert.Equal(t, session.StateUnauthenticated, snap.State)
	notice := reloaded.TakeNotice()
	require.NotNil(t, notice)
	assert.Equal(t, session.NoticeAccountDeactivated, notice.Kind)
	assert.Equal(t, 1, f.countAudit(audit.ActionAccountDeactivated))
}

func TestRecovery_NavigationNeverAuthenticates(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	// The recovery deep link rejects despite the live session.
	snap := f.mgr.Bootstrap(ctx, true)
	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)

	// The armed marker keeps rejecting across reloads.
	snap = f.mgr.Bootstrap(ctx, false)
	assert.Equal(t, session.StateUnauthenticated, snap.State)

	// Leaving the flow restores normal evaluation.
	require.NoError(t, f.mgr.ExitRecovery(ctx))
	f.mgr.Bootstrap(ctx, false)
	requireEventuallyState(t, f.mgr, session.StateResolved)
}

func TestLogout_ClearsLocallyAndRemotely(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	snap := f.mgr.Logout(ctx)

	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.Nil(t, snap.User)
	assert.Equal(t, 1, f.countAudit(audit.ActionSignedOut))
	_, err = f.provider.CurrentSession(ctx, f.ctxID)
	require.Error(t, err)
}

func TestAudit_EntriesCarryRequestMetadata(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)

	loginCtx := requestcontext.WithDevice(context.Background(), "Chrome 126 on Linux")
	loginCtx = requestcontext.WithRequestID(loginCtx, "req-login-1")
	_, err := f.mgr.Login(loginCtx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)
	require.Eventually(t, func() bool { return f.countAudit(audit.ActionSignedIn) == 1 }, waitFor, tick)

	// The sign-in entry is recorded from a background hydration, possibly
	// one triggered by the provider's own event rather than the login
	// request. Either way it carries the login request's metadata.
	signedIn := f.lastAudit(t, audit.ActionSignedIn)
	assert.Equal(t, "Chrome 126 on Linux", signedIn.Device)
	assert.Equal(t, "req-login-1", signedIn.RequestID)

	logoutCtx := requestcontext.WithDevice(context.Background(), "Safari 17 on macOS")
	logoutCtx = requestcontext.WithRequestID(logoutCtx, "req-logout-1")
	f.mgr.Logout(logoutCtx)

	signedOut := f.lastAudit(t, audit.ActionSignedOut)
	assert.Equal(t, "Safari 17 on macOS", signedOut.Device)
	assert.Equal(t, "req-logout-1", signedOut.RequestID)
}

func TestLogout_WithoutSessionSucceeds(t *testing.T) {
	f := newFixture(t)

	snap := f.mgr.Logout(context.Background())

	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.Zero(t, f.countAudit(audit.ActionSignedOut))
}

func TestUpdateProfile_RefreshesSnapshot(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeAdmin)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	dept := "platform"
	updated, err := f.mgr.UpdateProfile(ctx, profile.Patch{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "platform", updated.Department)

	snap := f.mgr.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "platform", snap.User.Department)
	assert.Equal(t, profile.PrivilegeAdmin, snap.User.Privilege)
}

func TestUpdateProfile_RequiresUser(t *testing.T) {
	f := newFixture(t)

	name := "New Name"
	_, err := f.mgr.UpdateProfile(context.Background(), profile.Patch{Name: &name})
	require.Error(t, err)
}

func TestUpdateProfile_UsernameConflict(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, "ada@example.com")
	f.seedProfile(t, userID, "ada", profile.PrivilegeViewer)
	f.seedProfile(t, id.NewUserID(), "taken", profile.PrivilegeViewer)
	ctx := context.Background()

	_, err := f.mgr.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	requireEventuallyState(t, f.mgr, session.StateResolved)

	taken := "taken"
	_, err = f.mgr.UpdateProfile(ctx, profile.Patch{Username: &taken})
	require.Error(t, err)
}
