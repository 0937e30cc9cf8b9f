package chatfan

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestOnActionSubscribe(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	err := e.OnAction(ctx, "S1", []byte(`{"action":"subscribeChannel","channelId":"dev"}`))
	if err != nil {
		t.Fatalf("OnAction: %v", err)
	}
	sessions, err := e.ListSessionsForChannel(ctx, "dev")
	if err != nil {
		t.Fatalf("ListSessionsForChannel: %v", err)
	}
	if !slices.Contains(sessions, "S1") {
		t.Fatalf("sessions = %v", sessions)
	}
}

func TestOnActionUnsubscribe(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Join(ctx, "dev", "S1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	err := e.OnAction(ctx, "S1", []byte(`{"action":"unsubscribeChannel","channelId":"dev"}`))
	if err != nil {
		t.Fatalf("OnAction: %v", err)
	}
	sessions, err := e.ListSessionsForChannel(ctx, "dev")
	if err != nil {
		t.Fatalf("ListSessionsForChannel: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("sessions = %v, want empty", sessions)
	}
}

func TestOnActionRejectsUnknownAction(t *testing.T) {
	e, _, rec := newTestEngine(t)

	err := e.OnAction(context.Background(), "S1", []byte(`{"action":"fly"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	pushes := rec.PushesTo("S1")
	if len(pushes) != 1 {
		t.Fatalf("sender got %d pushes, want 1 error event", len(pushes))
	}
	ev := decodeEvent(t, pushes[0].Payload)
	if ev.Event != EventError || ev.Message != "invalid action type" {
		t.Fatalf("ev = %+v", ev)
	}
}

func TestOnActionRejectsMissingChannel(t *testing.T) {
	e, _, rec := newTestEngine(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"action":"subscribeChannel"}`,
		`{"action":"unsubscribeChannel"}`,
		`{"action":"sendMessage","content":"hi"}`,
	} {
		err := e.OnAction(ctx, "S1", []byte(body))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("OnAction(%s) = %v, want ValidationError", body, err)
		}
	}
	// No mutation happened: the session holds no subscriptions.
	channels, err := e.ListChannelsForSession(ctx, "S1")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("channels = %v, want empty", channels)
	}
	if got := len(rec.PushesTo("S1")); got != 3 {
		t.Fatalf("sender got %d error events, want 3", got)
	}
}

func TestOnActionRejectsMalformedBody(t *testing.T) {
	e, _, _ := newTestEngine(t)

	err := e.OnAction(context.Background(), "S1", []byte(`{not json`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}
