// Package transport declares the push contract the fan-out engine
// delivers through. The engine never owns connections; it pushes bytes at
// a session id and treats failure as "that session is unreachable", a
// per-recipient outcome that must not abort a wider fan-out.
package transport

import "context"

// Pusher writes a payload to one session.
type Pusher interface {
	// Push delivers payload to the identified session. An error means the
	// session could not be reached (typically already gone).
	Push(ctx context.Context, sessionID string, payload []byte) error
}

// PusherFunc adapts a function to the Pusher interface.
type PusherFunc func(ctx context.Context, sessionID string, payload []byte) error

func (f PusherFunc) Push(ctx context.Context, sessionID string, payload []byte) error {
	return f(ctx, sessionID, payload)
}
