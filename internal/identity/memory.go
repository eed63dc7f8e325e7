package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "opsdash/pkg/domain"
	dErrors "opsdash/pkg/domain-errors"
	"opsdash/pkg/platform/sentinel"
)

// MemoryProvider is an in-process identity provider for development and
// tests. It implements the same contract as the hosted provider, including
// event fan-out on sign-in, sign-out and MFA verification.
type MemoryProvider struct {
	mu        sync.Mutex
	usersByID map[id.UserID]*memoryUser
	sessions  map[id.ContextID]*Session
	assurance map[id.ContextID]AssuranceLevel

	subMu    sync.Mutex
	nextSub  int
	handlers map[int]Handler
}

type memoryUser struct {
	claims       Claims
	passwordHash []byte
	factors      []Factor
	deleted      bool
}

// NewMemoryProvider builds an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		usersByID: make(map[id.UserID]*memoryUser),
		sessions:  make(map[id.ContextID]*Session),
		assurance: make(map[id.ContextID]AssuranceLevel),
		handlers:  make(map[int]Handler),
	}
}

// AddUser registers an account and returns its ID.
func (p *MemoryProvider) AddUser(email, password, displayName string) (id.UserID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return id.UserID{}, err
	}
	userID := id.NewUserID()
	p.mu.Lock()
	p.usersByID[userID] = &memoryUser{
		claims: Claims{
			UserID:      userID,
			Email:       email,
			DisplayName: displayName,
			Handle:      userID.String(),
		},
		passwordHash: hash,
	}
	p.mu.Unlock()
	return userID, nil
}

// EnrollFactor adds a verified MFA factor to the account, which arms the
// assurance gate for future sessions.
func (p *MemoryProvider) EnrollFactor(userID id.UserID, kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.usersByID[userID]; ok {
		u.factors = append(u.factors, Factor{ID: uuid.NewString(), Kind: kind, Verified: true})
	}
}

// DeleteUser removes the account while leaving issued sessions cached, the
// exact shape of the deleted-but-cached hazard the liveness gate exists for.
func (p *MemoryProvider) DeleteUser(userID id.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.usersByID[userID]; ok {
		u.deleted = true
	}
}

func (p *MemoryProvider) CurrentSession(ctx context.Context, ctxID id.ContextID) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[ctxID]
	if !ok {
		return nil, sentinel.ErrNoSession
	}
	return sess, nil
}

func (p *MemoryProvider) SignIn(ctx context.Context, ctxID id.ContextID, email, password string) (*Session, error) {
	p.mu.Lock()
	var user *memoryUser
	for _, u := range p.usersByID {
		if strings.EqualFold(u.claims.Email, email) && !u.deleted {
			user = u
			break
		}
	}
	if user == nil {
		p.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		p.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	claims := user.claims
	claims.LastSignInAt = time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		AccessToken: uuid.NewString(),
		Claims:      claims,
	}
	p.sessions[ctxID] = sess
	p.assurance[ctxID] = AssuranceLevel1
	p.mu.Unlock()

	p.emit(Event{Kind: EventSignedIn, ContextID: ctxID, Session: sess})
	return sess, nil
}

func (p *MemoryProvider) SignOut(ctx context.Context, ctxID id.ContextID, scope SignOutScope) error {
	p.mu.Lock()
	sess, ok := p.sessions[ctxID]
	if !ok {
		p.mu.Unlock()
		return sentinel.ErrNoSession
	}
	delete(p.sessions, ctxID)
	delete(p.assurance, ctxID)
	if scope == ScopeGlobal {
		for otherCtx, other := range p.sessions {
			if other.Claims.UserID == sess.Claims.UserID {
				delete(p.sessions, otherCtx)
				delete(p.assurance, otherCtx)
			}
		}
	}
	p.mu.Unlock()

	p.emit(Event{Kind: EventSignedOut, ContextID: ctxID})
	return nil
}

// VerifyMFA marks the context's session as second-factor verified and emits
// the corresponding provider event.
func (p *MemoryProvider) VerifyMFA(ctxID id.ContextID) {
	p.mu.Lock()
	sess, ok := p.sessions[ctxID]
	if ok {
		p.assurance[ctxID] = AssuranceLevel2
	}
	p.mu.Unlock()
	if ok {
		p.emit(Event{Kind: EventMFAVerified, ContextID: ctxID, Session: sess})
	}
}

func (p *MemoryProvider) AssuranceLevel(ctx context.Context, ctxID id.ContextID) (AssuranceLevel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	level, ok := p.assurance[ctxID]
	if !ok {
		return "", sentinel.ErrNoSession
	}
	return level, nil
}

func (p *MemoryProvider) ListFactors(ctx context.Context, ctxID id.ContextID) ([]Factor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[ctxID]
	if !ok {
		return nil, sentinel.ErrNoSession
	}
	user, ok := p.usersByID[sess.Claims.UserID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]Factor(nil), user.factors...), nil
}

func (p *MemoryProvider) Lookup(ctx context.Context, ctxID id.ContextID) (Claims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[ctxID]
	if !ok {
		return Claims{}, sentinel.ErrNotFound
	}
	user, ok := p.usersByID[sess.Claims.UserID]
	if !ok || user.deleted {
		return Claims{}, sentinel.ErrNotFound
	}
	return sess.Claims, nil
}

func (p *MemoryProvider) Subscribe(h Handler) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	idx := p.nextSub
	p.nextSub++
	p.handlers[idx] = h
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.handlers, idx)
	}
}

func (p *MemoryProvider) emit(ev Event) {
	p.subMu.Lock()
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.subMu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}
