package chatfan

import (
	"context"
	"errors"
	"sync"

	"github.com/chatfan/chatfan-go/keys"
	"github.com/chatfan/chatfan-go/store"
)

// OnChangeBatch processes one batch of change records from the store's
// feed. Records are handled concurrently; one record's failure never
// blocks the others, and the aggregate error joins every failure. All
// reactions are idempotent: the feed is at-least-once and the same record
// may arrive again.
func (e *Engine) OnChangeBatch(ctx context.Context, records []store.ChangeRecord) error {
	var wg sync.WaitGroup
	errs := make([]error, len(records))
	for i, rec := range records {
		i, rec := i, rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.react(ctx, rec)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// react classifies one change record by the type prefixes of its key
// parts and derives the fan-out, if any.
func (e *Engine) react(ctx context.Context, rec store.ChangeRecord) error {
	if rec.Seq != "" {
		if _, dup := e.seen.Get(rec.Seq); dup {
			// Redelivered record; the reaction already ran. Suppression is
			// best effort only.
			return nil
		}
	}

	switch keys.Kind(rec.HashKey) {
	case keys.KindChannel:
		switch keys.Kind(rec.RangeKey) {
		case keys.KindSession:
			return e.reactSubscription(ctx, rec)
		case keys.KindMessage:
			// A message row written around the synchronous post path.
			// Announcing it here would double-deliver what PostMessage
			// already fanned out, so inserts are classified and dropped;
			// an out-of-band injection path would deliver from here.
			return nil
		}
	case keys.KindSession:
		// No reaction defined for session-keyed rows.
	}
	return nil
}

// reactSubscription announces a membership change to the channel's
// current subscribers. The snapshot is taken at reaction time, so the
// joining session hears its own announcement and a leaving session does
// not.
func (e *Engine) reactSubscription(ctx context.Context, rec store.ChangeRecord) error {
	var event string
	switch rec.Kind {
	case store.ChangeInsert:
		event = EventSubscriberSub
	case store.ChangeRemove:
		event = EventSubscriberUnsub
	default:
		// update is unreachable: subscription rows are only ever put or
		// deleted whole.
		return nil
	}

	channelID := keys.ParseEntityID(rec.HashKey)
	recipients, err := e.ListSessionsForChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if _, err := e.Deliver(ctx, recipients, Event{
		Event:        event,
		ChannelID:    channelID,
		SubscriberID: keys.ParseEntityID(rec.RangeKey),
	}); err != nil {
		return err
	}
	if rec.Seq != "" {
		e.seen.Add(rec.Seq, struct{}{})
	}
	return nil
}

// RunReactor consumes the store's change feed through OnChangeBatch until
// ctx ends. The reactor keeps no cursor of its own; resume policy belongs
// to the feed. Reaction failures are logged and consumption continues, on
// the assumption that the feed's redelivery is the sole retry mechanism.
func (e *Engine) RunReactor(ctx context.Context, feed store.ChangeFeed) error {
	return feed.Subscribe(ctx, "", func(ctx context.Context, rec store.ChangeRecord) error {
		if err := e.OnChangeBatch(ctx, []store.ChangeRecord{rec}); err != nil {
			e.log.ErrorContext(ctx, "change reaction failed",
				"hash_key", rec.HashKey,
				"range_key", rec.RangeKey,
				"kind", string(rec.Kind),
				"err", err,
			)
		}
		return nil
	})
}
