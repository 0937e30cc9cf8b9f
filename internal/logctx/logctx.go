// Package logctx carries chat-scoped attributes (session, action) through
// context so any slog call inside an activation picks them up without
// threading loggers around.
package logctx

import (
	"context"
	"log/slog"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("sess",
			slog.String("id", sd.SessionID),
			slog.String("remote_addr", sd.RemoteAddr),
		))
	}

	if ad, ok := ctx.Value(actionDataKey{}).(*ActionData); ok {
		r.AddAttrs(slog.Group("action",
			slog.String("name", ad.Name),
			slog.String("channel_id", ad.ChannelID),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type sessionDataKey struct{}

type SessionData struct {
	SessionID  string
	RemoteAddr string
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}

type actionDataKey struct{}

type ActionData struct {
	Name      string
	ChannelID string
}

func WithActionData(ctx context.Context, data *ActionData) context.Context {
	return context.WithValue(ctx, actionDataKey{}, data)
}
