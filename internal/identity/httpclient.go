package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"opsdash/internal/platform/config"
	id "opsdash/pkg/domain"
	dErrors "opsdash/pkg/domain-errors"
	"opsdash/pkg/platform/sentinel"
)

// HTTPClient talks to the hosted identity provider's REST surface and keeps
// the per-context session tokens the provider has issued. Provider webhooks
// land in Deliver, which refreshes the token cache and fans the event out to
// subscribers (the session engine).
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[id.ContextID]*Session

	subMu    sync.Mutex
	nextSub  int
	handlers map[int]Handler

	// jwtSecret verifies provider access tokens when set. Without it the
	// token is decoded unverified; the TLS channel to the provider is the
	// trust anchor in that mode.
	jwtSecret []byte
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithLogger sets the logger used for provider call failures.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) { c.logger = logger }
}

// WithJWTSecret enables HS256 verification of provider access tokens.
func WithJWTSecret(secret []byte) HTTPOption {
	return func(c *HTTPClient) { c.jwtSecret = secret }
}

// NewHTTPClient builds a provider client from configuration.
func NewHTTPClient(cfg config.Identity, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   slog.Default(),
		sessions: make(map[id.ContextID]*Session),
		handlers: make(map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentSession returns the cached provider session for the context.
func (c *HTTPClient) CurrentSession(ctx context.Context, ctxID id.ContextID) (*Session, error) {
	c.mu.RLock()
	sess, ok := c.sessions[ctxID]
	c.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNoSession
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return nil, sentinel.ErrNoSession
	}
	return sess, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// SignIn exchanges credentials for a session and caches it for the context.
func (c *HTTPClient) SignIn(ctx context.Context, ctxID id.ContextID, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var tok tokenResponse
	if err := c.call(ctx, http.MethodPost, "/token?grant_type=password", "", body, &tok); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	sess, err := c.sessionFromToken(tok)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sessions[ctxID] = sess
	c.mu.Unlock()
	return sess, nil
}

// SignOut destroys the provider session. A missing session is reported as
// sentinel.ErrNoSession so callers can treat it as already signed out.
func (c *HTTPClient) SignOut(ctx context.Context, ctxID id.ContextID, scope SignOutScope) error {
	c.mu.Lock()
	sess, ok := c.sessions[ctxID]
	delete(c.sessions, ctxID)
	c.mu.Unlock()
	if !ok {
		return sentinel.ErrNoSession
	}
	err := c.call(ctx, http.MethodPost, "/logout?scope="+string(scope), sess.AccessToken, nil, nil)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Provider had no session to destroy; that is the desired end state.
		return sentinel.ErrNoSession
	}
	return err
}

type aalResponse struct {
	CurrentLevel string `json:"current_level"`
}

// AssuranceLevel queries the provider for the session's trust tier.
func (c *HTTPClient) AssuranceLevel(ctx context.Context, ctxID id.ContextID) (AssuranceLevel, error) {
	sess, err := c.CurrentSession(ctx, ctxID)
	if err != nil {
		return "", err
	}
	var resp aalResponse
	if err := c.call(ctx, http.MethodGet, "/factors/aal", sess.AccessToken, nil, &resp); err != nil {
		return "", err
	}
	return AssuranceLevel(resp.CurrentLevel), nil
}

type factorResponse struct {
	ID     string `json:"id"`
	Type   string `json:"factor_type"`
	Status string `json:"status"`
}

// ListFactors returns the account's enrolled MFA factors.
func (c *HTTPClient) ListFactors(ctx context.Context, ctxID id.ContextID) ([]Factor, error) {
	sess, err := c.CurrentSession(ctx, ctxID)
	if err != nil {
		return nil, err
	}
	var resp []factorResponse
	if err := c.call(ctx, http.MethodGet, "/factors", sess.AccessToken, nil, &resp); err != nil {
		return nil, err
	}
	factors := make([]Factor, 0, len(resp))
	for _, f := range resp {
		factors = append(factors, Factor{
			ID:       f.ID,
			Kind:     f.Type,
			Verified: f.Status == "verified",
		})
	}
	return factors, nil
}

type userResponse struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
	LastSignInAt time.Time         `json:"last_sign_in_at"`
}

// Lookup asks the provider whether the identity behind the cached session
// still exists. A definitive 401/404 maps to sentinel.ErrNotFound.
func (c *HTTPClient) Lookup(ctx context.Context, ctxID id.ContextID) (Claims, error) {
	sess, err := c.CurrentSession(ctx, ctxID)
	if err != nil {
		return Claims{}, sentinel.ErrNotFound
	}
	var resp userResponse
	if err := c.call(ctx, http.MethodGet, "/user", sess.AccessToken, nil, &resp); err != nil {
		return Claims{}, err
	}
	userID, err := id.ParseUserID(resp.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("provider user id: %w", err)
	}
	return Claims{
		UserID:       userID,
		Email:        resp.Email,
		DisplayName:  resp.UserMetadata["full_name"],
		LastSignInAt: resp.LastSignInAt,
		Handle:       resp.ID,
	}, nil
}

// Subscribe registers a handler for provider events delivered via Deliver.
func (c *HTTPClient) Subscribe(h Handler) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	idx := c.nextSub
	c.nextSub++
	c.handlers[idx] = h
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.handlers, idx)
	}
}

// Deliver ingests a provider webhook event: refreshes the token cache, then
// fans the event out to subscribers.
func (c *HTTPClient) Deliver(ev Event) {
	c.mu.Lock()
	switch {
	case ev.Kind == EventSignedOut:
		delete(c.sessions, ev.ContextID)
	case ev.Session != nil:
		c.sessions[ev.ContextID] = ev.Session
	}
	c.mu.Unlock()

	c.logger.Debug("provider event delivered", "kind", string(ev.Kind), "context_id", ev.ContextID.String())

	c.subMu.Lock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.subMu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// SessionFromToken builds a Session from a raw provider access token. The
// webhook handler uses this to materialize sessions from event payloads.
func (c *HTTPClient) SessionFromToken(accessToken string) (*Session, error) {
	return c.sessionFromToken(tokenResponse{AccessToken: accessToken})
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
	SessionID    string            `json:"session_id"`
}

func (c *HTTPClient) sessionFromToken(tok tokenResponse) (*Session, error) {
	var claims accessClaims
	var err error
	if len(c.jwtSecret) > 0 {
		// Expiry is enforced in CurrentSession, not here: an expired token
		// still identifies the session it belonged to.
		_, err = jwt.ParseWithClaims(tok.AccessToken, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return c.jwtSecret, nil
		}, jwt.WithoutClaimsValidation())
	} else {
		parser := jwt.NewParser()
		_, _, err = parser.ParseUnverified(tok.AccessToken, &claims)
	}
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("access token subject: %w", err)
	}

	sess := &Session{
		ID:          claims.SessionID,
		AccessToken: tok.AccessToken,
		Claims: Claims{
			UserID:      userID,
			Email:       claims.Email,
			DisplayName: claims.UserMetadata["full_name"],
			Handle:      claims.Subject,
		},
	}
	if claims.IssuedAt != nil {
		sess.Claims.LastSignInAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	} else if tok.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return sess, nil
}

func (c *HTTPClient) call(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnauthorized:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("provider %s %s: status %d: %w", method, path, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode >= 400:
		return fmt.Errorf("provider %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode provider response: %w", err)
		}
	}
	return nil
}
