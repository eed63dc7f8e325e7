// Package audit captures the append-only login/logout trail.
//
// Recording is fire-and-forget by contract: the session engine must never
// block or fail because the audit path is down, so events are handed to an
// asynchronous sink and append failures are logged, not returned.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "opsdash/pkg/domain"
	"opsdash/pkg/requestcontext"
)

// Action names an audited lifecycle event.
type Action string

const (
	ActionSignedIn           Action = "signed_in"
	ActionSignedOut          Action = "signed_out"
	ActionAccountDeactivated Action = "account_deactivated"
	ActionAccountGone        Action = "account_gone"
)

// Event is one audit entry. Keep it transport-agnostic so stores and
// publishers can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    id.UserID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Action    Action    `json:"action"`
	Device    string    `json:"device,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Appender persists events. Implementations: memory, Postgres, Kafka.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is an Appender that can also be queried, for the dashboard's
// activity view. The Kafka publisher is append-only and does not implement
// it.
type Store interface {
	Appender
	ListByUser(ctx context.Context, userID id.UserID, limit int, actions ...Action) ([]Event, error)
}

// Recorder is the contract the session engine consumes.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Sink is the asynchronous Recorder: events go onto a bounded inbox and a
// worker goroutine appends them. When the inbox is full the event is
// dropped with a log line rather than blocking the caller.
type Sink struct {
	appender Appender
	inbox    chan Event
	logger   *slog.Logger
	done     chan struct{}
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithLogger sets the logger for append failures and drops.
func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) { s.logger = logger }
}

// WithInboxSize overrides the default inbox capacity.
func WithInboxSize(n int) SinkOption {
	return func(s *Sink) {
		if n > 0 {
			s.inbox = make(chan Event, n)
		}
	}
}

// NewSink builds an audit sink over the given appender.
func NewSink(appender Appender, opts ...SinkOption) *Sink {
	s := &Sink{
		appender: appender,
		inbox:    make(chan Event, 256),
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record enqueues an event without blocking. Missing ID, Timestamp and
// request metadata are stamped here, the latter from the request context,
// so callers only supply the facts they know.
func (s *Sink) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case s.inbox <- event:
	default:
		s.logger.Warn("audit inbox full, dropping event",
			"action", string(event.Action),
			"user_id", event.UserID.String(),
		)
	}
}

// Run consumes the inbox until ctx is cancelled, then drains whatever is
// already queued. Append failures are logged and the worker keeps going.
func (s *Sink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case event := <-s.inbox:
			s.append(event)
		}
	}
}

// Wait blocks until Run has returned, for orderly shutdown.
func (s *Sink) Wait() {
	<-s.done
}

func (s *Sink) drain() {
	for {
		select {
		case event := <-s.inbox:
			s.append(event)
		default:
			return
		}
	}
}

func (s *Sink) append(event Event) {
	// Detached context: the triggering request is long gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.appender.Append(ctx, event); err != nil {
		s.logger.Error("audit append failed",
			"error", err,
			"action", string(event.Action),
			"user_id", event.UserID.String(),
		)
	}
}
