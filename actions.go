package chatfan

import (
	"context"
	"encoding/json"

	"github.com/chatfan/chatfan-go/internal/logctx"
)

// Action names accepted by OnAction.
const (
	ActionSubscribe   = "subscribeChannel"
	ActionUnsubscribe = "unsubscribeChannel"
	ActionSendMessage = "sendMessage"
)

// ActionBody is the JSON body of one client action.
type ActionBody struct {
	Action    string `json:"action"`
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

// OnAction dispatches one client action sent by sessionID. Malformed
// bodies and unknown actions are rejected with a ValidationError and an
// "error" event pushed back to the sender; no store mutation happens in
// that case.
func (e *Engine) OnAction(ctx context.Context, sessionID string, body []byte) error {
	var a ActionBody
	if err := json.Unmarshal(body, &a); err != nil {
		return e.rejectAction(ctx, sessionID, "malformed action body")
	}
	ctx = logctx.WithActionData(ctx, &logctx.ActionData{Name: a.Action, ChannelID: a.ChannelID})

	switch a.Action {
	case ActionSubscribe:
		if a.ChannelID == "" {
			return e.rejectAction(ctx, sessionID, "missing channelId")
		}
		return e.Join(ctx, a.ChannelID, sessionID)
	case ActionUnsubscribe:
		if a.ChannelID == "" {
			return e.rejectAction(ctx, sessionID, "missing channelId")
		}
		return e.Leave(ctx, a.ChannelID, sessionID)
	case ActionSendMessage:
		if a.ChannelID == "" {
			return e.rejectAction(ctx, sessionID, "missing channelId")
		}
		return e.PostMessage(ctx, a.ChannelID, sessionID, a.Name, a.Content)
	default:
		return e.rejectAction(ctx, sessionID, "invalid action type")
	}
}

// rejectAction pushes an "error" event back at the sender (best effort;
// the sender may already be gone) and returns the ValidationError.
func (e *Engine) rejectAction(ctx context.Context, sessionID, msg string) error {
	payload, _ := json.Marshal(Event{Event: EventError, Message: msg})
	if err := e.pusher.Push(ctx, sessionID, payload); err != nil {
		e.log.DebugContext(ctx, "error event push failed", "session_id", sessionID, "err", err)
	}
	return &ValidationError{Msg: msg}
}
