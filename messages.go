package chatfan

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/chatfan/chatfan-go/keys"
	"github.com/chatfan/chatfan-go/store"
)

var (
	nameStrip   = regexp.MustCompile(`[^A-Za-z0-9\s-]`)
	namePlusRun = regexp.MustCompile(`\+s`)
)

// NormalizeDisplayName applies the pinned normalization chain: drop every
// character outside [A-Za-z0-9\s-], trim surrounding whitespace, then
// replace any literal "+s" with "-". The last step cannot match once "+"
// has been stripped; it is part of the pinned contract, not an oversight
// to generalize.
func NormalizeDisplayName(raw string) string {
	s := nameStrip.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	return namePlusRun.ReplaceAllString(s, "-")
}

// PostMessage ingests one chat message: normalizes the display name,
// sanitizes the content against the fixed allow-list, appends the message
// record to the channel's log, then fans the message out to the channel's
// current membership. A store failure aborts the whole post; per-recipient
// delivery failures do not.
func (e *Engine) PostMessage(ctx context.Context, channelID, senderSessionID, rawName, rawContent string) error {
	if channelID == "" {
		return &ValidationError{Msg: "missing channelId"}
	}

	name := NormalizeDisplayName(rawName)
	content := e.sanitizer.Sanitize(rawContent)

	rec := store.Record{
		Key: store.Key{
			HashKey:  keys.ChannelKey(channelID),
			RangeKey: keys.MessageKey(e.messageID()),
		},
		Fields: map[string]string{
			"sessionId": senderSessionID,
			"name":      name,
			"content":   content,
		},
	}
	if err := e.store.Put(ctx, rec); err != nil {
		return &StoreError{Op: "put message", Err: err}
	}

	recipients, err := e.ListSessionsForChannel(ctx, channelID)
	if err != nil {
		return err
	}
	res, err := e.Deliver(ctx, recipients, Event{
		Event:     EventChannelMessage,
		ChannelID: channelID,
		Name:      name,
		Content:   content,
	})
	if err != nil {
		return err
	}
	e.log.DebugContext(ctx, "message posted",
		"channel_id", channelID,
		"delivered", res.Delivered,
		"failed", len(res.Failed),
	)
	return nil
}

// messageID derives a message id from the current time so that range-key
// order within a channel is chronological. The uuid suffix disambiguates
// posts landing on the same millisecond; it never affects cross-tick
// ordering.
func (e *Engine) messageID() string {
	return fmt.Sprintf("%013d-%s", e.now().UnixMilli(), uuid.NewString())
}
