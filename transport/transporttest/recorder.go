// Package transporttest provides a recording transport.Pusher for engine
// tests.
package transporttest

import (
	"context"
	"sync"
)

// Push is one recorded delivery attempt that succeeded.
type Push struct {
	SessionID string
	Payload   []byte
}

// Recorder captures pushes and can be told to fail specific sessions.
type Recorder struct {
	mu     sync.Mutex
	pushes []Push
	fail   map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[string]error)}
}

// FailSession makes every Push to sessionID return err.
func (r *Recorder) FailSession(sessionID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[sessionID] = err
}

func (r *Recorder) Push(ctx context.Context, sessionID string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[sessionID]; ok {
		return err
	}
	r.pushes = append(r.pushes, Push{
		SessionID: sessionID,
		Payload:   append([]byte(nil), payload...),
	})
	return nil
}

// Pushes returns every successful push in arrival order.
func (r *Recorder) Pushes() []Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Push(nil), r.pushes...)
}

// PushesTo returns the successful pushes addressed to sessionID.
func (r *Recorder) PushesTo(sessionID string) []Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Push
	for _, p := range r.pushes {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

// Reset discards recorded pushes, keeping failure configuration.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = nil
}
