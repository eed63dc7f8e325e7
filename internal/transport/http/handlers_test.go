package httptransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/audit"
	"opsdash/internal/identity"
	"opsdash/internal/platform/config"
	"opsdash/internal/platform/middleware"
	"opsdash/internal/profile"
	"opsdash/internal/push"
	"opsdash/internal/session"
	"opsdash/internal/tabstate"
	httptransport "opsdash/internal/transport/http"
	id "opsdash/pkg/domain"
	"opsdash/pkg/testutil"
)

type stack struct {
	provider *identity.MemoryProvider
	profiles *profile.MemoryStore
	audits   *audit.MemoryStore
	router   http.Handler
	ctxID    id.ContextID
}

// syncRecorder appends inline so handler tests can assert on the trail.
type syncRecorder struct {
	store *audit.MemoryStore
}

func (r syncRecorder) Record(ctx context.Context, e audit.Event) {
	_ = r.store.Append(ctx, e)
}

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

func newStack(t *testing.T, opts ...httptransport.HandlerOption) *stack {
	t.Helper()
	s := &stack{
		provider: identity.NewMemoryProvider(),
		profiles: profile.NewMemoryStore(),
		audits:   audit.NewMemoryStore(),
		ctxID:    id.NewContextID(),
	}
	tabs := tabstate.NewMemoryStore()
	registry := session.NewRegistry(func(ctxID id.ContextID) *session.Manager {
		return session.NewManager(ctxID, session.Deps{
			Identity: s.provider,
			Profiles: s.profiles,
			Tabs:     tabs,
			Audits:   syncRecorder{store: s.audits},
			Push:     push.Noop{},
		}, session.WithTimeouts(testTimeouts()))
	})
	t.Cleanup(registry.Close)

	opts = append([]httptransport.HandlerOption{httptransport.WithAuditStore(s.audits)}, opts...)
	s.router = httptransport.NewRouter(httptransport.NewHandler(registry, opts...))
	return s
}

func (s *stack) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set(middleware.ContextHeader, s.ctxID.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *stack) seedUser(t *testing.T, email string) id.UserID {
	t.Helper()
	userID, err := s.provider.AddUser(email, "s3cret", "Test User")
	require.NoError(t, err)
	_, err = s.profiles.Insert(context.Background(), &profile.Profile{
		ID:        userID,
		Name:      "Stored Name",
		Username:  "ada",
		Privilege: profile.PrivilegeAdmin,
	})
	require.NoError(t, err)
	return userID
}

func (s *stack) login(t *testing.T, email string) {
	t.Helper()
	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/v1/login",
		map[string]string{"email": email, "password": "s3cret"}))
	require.Equal(t, http.StatusOK, rec.Code)
	s.awaitState(t, "resolved")
}

func (s *stack) awaitState(t *testing.T, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
		var resp struct {
			State string `json:"state"`
		}
		testutil.DecodeJSON(t, rec, &resp)
		return resp.State == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSession_BootstrapWithoutSession(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/session?bootstrap=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		State   string          `json:"state"`
		User    json.RawMessage `json:"user"`
		Loading bool            `json:"loading"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "unauthenticated", resp.State)
	assert.Empty(t, resp.User)
}

func TestSession_MintsContextCookie(t *testing.T) {
	s := newStack(t)

	// No header, no cookie: the gateway assigns a context.
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	found := false
	for _, c := range cookies {
		if c.Name == middleware.ContextCookie {
			found = true
			_, err := id.ParseContextID(c.Value)
			assert.NoError(t, err)
		}
	}
	assert.True(t, found, "context cookie not set")
}

func TestLogin_ResolvesAndAudits(t *testing.T) {
	s := newStack(t)
	userID := s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	var resp struct {
		State string        `json:"state"`
		User  *session.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	require.NotNil(t, resp.User)
	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "ada", resp.User.Username)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var auditResp struct {
		Events []audit.Event `json:"events"`
	}
	testutil.DecodeJSON(t, rec, &auditResp)
	require.NotEmpty(t, auditResp.Events)
	assert.Equal(t, audit.ActionSignedIn, auditResp.Events[0].Action)
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newStack(t)
	s.seedUser(t, "ada@example.com")

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/v1/login",
		map[string]string{"email": "ada@example.com", "password": "nope"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_InvalidBody(t *testing.T) {
	s := newStack(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/login", nil)
	rec := s.do(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	s := newStack(t)
	s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/v1/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		State string `json:"state"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "unauthenticated", resp.State)
}

func TestLogout_AuditCarriesDeviceSummary(t *testing.T) {
	s := newStack(t)
	userID := s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	req := httptest.NewRequest(http.MethodPost, "/v1/logout", nil)
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	req.Header.Set("X-Request-ID", "req-logout-7")
	rec := s.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var signedOut *audit.Event
	for _, e := range s.audits.All() {
		if e.Action == audit.ActionSignedOut && e.UserID == userID {
			ev := e
			signedOut = &ev
		}
	}
	require.NotNil(t, signedOut, "no signed_out audit entry recorded")
	assert.Contains(t, signedOut.Device, "Chrome 126")
	assert.Equal(t, "req-logout-7", signedOut.RequestID)
}

func TestProfile_PatchUpdatesSnapshot(t *testing.T) {
	s := newStack(t)
	s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPatch, "/v1/profile",
		map[string]string{"department": "platform"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		User *session.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	require.NotNil(t, resp.User)
	assert.Equal(t, "platform", resp.User.Department)
}

func TestProfile_RequiresSession(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPatch, "/v1/profile",
		map[string]string{"department": "platform"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecovery_EnterDropsSession(t *testing.T) {
	s := newStack(t)
	s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/v1/recovery",
		map[string]string{"action": "enter"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		State string `json:"state"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "unauthenticated", resp.State)
}

func TestRecovery_UnknownAction(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/v1/recovery",
		map[string]string{"action": "sideways"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAudit_RequiresUser(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/audit", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAudit_LimitValidation(t *testing.T) {
	s := newStack(t)
	s.seedUser(t, "ada@example.com")
	s.login(t, "ada@example.com")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/audit?limit=0", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents_RouteAbsentWithoutSink(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/v1/events",
		map[string]string{"type": "signed_out"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_Webhook(t *testing.T) {
	client := identity.NewHTTPClient(config.Identity{BaseURL: "http://provider.invalid", Timeout: time.Second})
	s := newStack(t, httptransport.WithEventSink(client, "hush"))

	t.Run("rejects wrong secret", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/events",
			map[string]string{"type": "signed_out", "ctx_id": s.ctxID.String()})
		req.Header.Set("X-Webhook-Secret", "wrong")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/events",
			map[string]string{"type": "password_changed", "ctx_id": s.ctxID.String()})
		req.Header.Set("X-Webhook-Secret", "hush")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires token for session events", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/events",
			map[string]string{"type": "signed_in", "ctx_id": s.ctxID.String()})
		req.Header.Set("X-Webhook-Secret", "hush")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("accepts signed_out", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/events",
			map[string]string{"type": "signed_out", "ctx_id": s.ctxID.String()})
		req.Header.Set("X-Webhook-Secret", "hush")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}

func TestBackupCode_Accepted(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/v1/mfa/backup-code", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newStack(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
