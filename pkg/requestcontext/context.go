// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets the session engine consume request metadata without
// pulling transport code into its import graph.
//
// Usage in services (read values):
//
//	ctxID := requestcontext.ContextID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithContextID(ctx, ctxID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "opsdash/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	contextIDKey   struct{}
	requestIDKey   struct{}
	deviceKey      struct{}
	clientIPKey    struct{}
	requestTimeKey struct{}
)

// WithContextID injects the browser-context identifier.
func WithContextID(ctx context.Context, ctxID id.ContextID) context.Context {
	return context.WithValue(ctx, contextIDKey{}, ctxID)
}

// ContextID returns the browser-context identifier, or the nil ID when the
// request carried none.
func ContextID(ctx context.Context) id.ContextID {
	if v, ok := ctx.Value(contextIDKey{}).(id.ContextID); ok {
		return v
	}
	return id.ContextID{}
}

// WithRequestID injects the per-request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithDevice injects a human-readable device summary ("Chrome on macOS")
// derived from the User-Agent header.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// Device returns the device summary, or "" when absent.
func Device(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientIP injects the remote address as seen at the edge.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the remote address, or "" when absent.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTime pins the request time. Tests use this to make time-dependent
// logic deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to time.Now.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}
