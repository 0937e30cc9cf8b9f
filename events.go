package chatfan

// Event names pushed to sessions.
const (
	EventChannelMessage  = "channel_message"
	EventSubscriberSub   = "subscriber_sub"
	EventSubscriberUnsub = "subscriber_unsub"
	EventError           = "error"
)

// Event is the JSON payload pushed to sessions. Fields outside the
// event's shape stay empty and are omitted on the wire.
type Event struct {
	Event     string `json:"event"`
	ChannelID string `json:"channelId,omitempty"`

	// channel_message
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`

	// subscriber_sub / subscriber_unsub: the session joining or leaving.
	SubscriberID string `json:"subscriberId,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}
