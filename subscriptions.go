package chatfan

import (
	"context"

	"github.com/chatfan/chatfan-go/keys"
	"github.com/chatfan/chatfan-go/store"
)

// subscriptionKey materializes the relation "session is a member of
// channel" as one record. The forward projection answers "who is in this
// channel"; the reverse projection answers "which channels does this
// session hold".
func subscriptionKey(channelID, sessionID string) store.Key {
	return store.Key{
		HashKey:  keys.ChannelKey(channelID),
		RangeKey: keys.SessionKey(sessionID),
	}
}

// Join subscribes sessionID to channelID. The write is an idempotent
// upsert and carries no synchronous notification: the announcement rides
// the change feed, so any writer that puts a subscription record (this
// engine or an out-of-band one) triggers the same path.
func (e *Engine) Join(ctx context.Context, channelID, sessionID string) error {
	rec := store.Record{Key: subscriptionKey(channelID, sessionID)}
	if err := e.store.Put(ctx, rec); err != nil {
		return &StoreError{Op: "put subscription", Err: err}
	}
	e.log.DebugContext(ctx, "joined channel", "channel_id", channelID, "session_id", sessionID)
	return nil
}

// Leave removes sessionID's subscription to channelID. Leaving a channel
// that was never joined is a no-op.
func (e *Engine) Leave(ctx context.Context, channelID, sessionID string) error {
	if err := e.store.Delete(ctx, subscriptionKey(channelID, sessionID)); err != nil {
		return &StoreError{Op: "delete subscription", Err: err}
	}
	e.log.DebugContext(ctx, "left channel", "channel_id", channelID, "session_id", sessionID)
	return nil
}

// ListSessionsForChannel returns the ids of every session currently
// subscribed to channelID.
func (e *Engine) ListSessionsForChannel(ctx context.Context, channelID string) ([]string, error) {
	recs, err := e.store.Query(ctx, keys.ChannelKey(channelID), keys.SessionPrefix)
	if err != nil {
		return nil, &StoreError{Op: "query channel subscriptions", Err: err}
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, keys.ParseEntityID(rec.RangeKey))
	}
	return ids, nil
}

// ListChannelsForSession returns the ids of every channel sessionID is
// subscribed to, via the reverse projection.
func (e *Engine) ListChannelsForSession(ctx context.Context, sessionID string) ([]string, error) {
	recs, err := e.store.QueryReverse(ctx, keys.SessionKey(sessionID), keys.ChannelPrefix)
	if err != nil {
		return nil, &StoreError{Op: "query session subscriptions", Err: err}
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, keys.ParseEntityID(rec.HashKey))
	}
	return ids, nil
}
