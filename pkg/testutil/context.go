package testutil

import (
	"net/http"

	id "opsdash/pkg/domain"
	"opsdash/pkg/requestcontext"
)

// WithContextID attaches a browser-context ID to the request context, the
// way the transport middleware would for a real request. Invalid IDs are
// silently ignored.
func WithContextID(req *http.Request, ctxID string) *http.Request {
	parsed, err := id.ParseContextID(ctxID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithContextID(req.Context(), parsed))
}

// WithDevice attaches a device summary to the request context.
func WithDevice(req *http.Request, device string) *http.Request {
	return req.WithContext(requestcontext.WithDevice(req.Context(), device))
}
