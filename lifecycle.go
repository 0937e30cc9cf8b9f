package chatfan

import (
	"context"
	"errors"
	"sync"
)

// OnSessionStart runs once when the transport establishes a session: the
// session is auto-joined to the default channel. Nobody is notified here;
// the subscription insert reaches the change feed and the reactor makes
// the announcement.
func (e *Engine) OnSessionStart(ctx context.Context, sessionID string) error {
	return e.Join(ctx, e.defaultChannel, sessionID)
}

// OnSessionEnd tears down every subscription held by sessionID. The
// leaves run concurrently and the call waits for all of them. Ending a
// session twice is safe: the second call finds nothing to leave.
func (e *Engine) OnSessionEnd(ctx context.Context, sessionID string) error {
	channels, err := e.ListChannelsForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make([]error, len(channels))
	for i, channelID := range channels {
		i, channelID := i, channelID
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.Leave(ctx, channelID, sessionID)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	e.log.DebugContext(ctx, "session torn down", "session_id", sessionID, "channels", len(channels))
	return nil
}
