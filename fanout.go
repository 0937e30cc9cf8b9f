package chatfan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// DeliveryResult reports the outcome of one fan-out call.
type DeliveryResult struct {
	// Delivered counts recipients whose push succeeded.
	Delivered int
	// Failed lists the recipients whose push failed. A failed push never
	// short-circuits sibling pushes dispatched in the same call.
	Failed []DeliveryError
}

// Deliver pushes ev to every recipient concurrently and waits for the
// whole set to finish. Per-recipient failures are collected into the
// result and logged; they do not fail the call. The error return covers
// only payload encoding, so a nil error means the fan-out itself ran to
// completion.
func (e *Engine) Deliver(ctx context.Context, recipients []string, ev Event) (DeliveryResult, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("encode %s event: %w", ev.Event, err)
	}

	var (
		mu  sync.Mutex
		res DeliveryResult
		wg  sync.WaitGroup
	)
	for _, sessionID := range recipients {
		sessionID := sessionID
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.pusher.Push(ctx, sessionID, payload); err != nil {
				e.log.WarnContext(ctx, "push failed",
					"session_id", sessionID,
					"event", ev.Event,
					"err", err,
				)
				mu.Lock()
				res.Failed = append(res.Failed, DeliveryError{SessionID: sessionID, Err: err})
				mu.Unlock()
				return
			}
			mu.Lock()
			res.Delivered++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return res, nil
}
