package chatfan

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chatfan/chatfan-go/store/memorystore"
	"github.com/chatfan/chatfan-go/transport/transporttest"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memorystore.Store, *transporttest.Recorder) {
	t.Helper()
	st := memorystore.New()
	rec := transporttest.NewRecorder()
	return New(st, rec, opts...), st, rec
}

func decodeEvent(t *testing.T, payload []byte) Event {
	t.Helper()
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode event %s: %v", payload, err)
	}
	return ev
}

// startReactor runs the engine's reactor over the store's feed for the
// duration of the test and gives the subscription time to register.
func startReactor(t *testing.T, e *Engine, st *memorystore.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = e.RunReactor(ctx, st) }()
	time.Sleep(50 * time.Millisecond)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// Full session walkthrough: two sessions on the default channel, a join
// announcement, a sanitized message, and a teardown announcement.
func TestSessionWalkthrough(t *testing.T) {
	e, st, rec := newTestEngine(t)
	startReactor(t, e, st)
	ctx := context.Background()

	if err := e.OnSessionStart(ctx, "A"); err != nil {
		t.Fatalf("start A: %v", err)
	}
	waitFor(t, "A's own join announcement", func() bool {
		for _, p := range rec.PushesTo("A") {
			ev := decodeEvent(t, p.Payload)
			if ev.Event == EventSubscriberSub && ev.SubscriberID == "A" {
				return true
			}
		}
		return false
	})

	if err := e.OnSessionStart(ctx, "B"); err != nil {
		t.Fatalf("start B: %v", err)
	}
	waitFor(t, "A hearing about B", func() bool {
		for _, p := range rec.PushesTo("A") {
			ev := decodeEvent(t, p.Payload)
			if ev.Event == EventSubscriberSub && ev.SubscriberID == "B" && ev.ChannelID == "General" {
				return true
			}
		}
		return false
	})

	rec.Reset()
	body := []byte(`{"action":"sendMessage","channelId":"General","name":"B","content":"<b>hi</b>"}`)
	if err := e.OnAction(ctx, "B", body); err != nil {
		t.Fatalf("sendMessage: %v", err)
	}
	pushes := rec.PushesTo("A")
	if len(pushes) != 1 {
		t.Fatalf("A got %d pushes, want 1", len(pushes))
	}
	ev := decodeEvent(t, pushes[0].Payload)
	if ev.Event != EventChannelMessage || ev.Name != "B" || ev.Content != "<b>hi</b>" || ev.ChannelID != "General" {
		t.Fatalf("channel_message = %+v", ev)
	}

	rec.Reset()
	if err := e.OnSessionEnd(ctx, "A"); err != nil {
		t.Fatalf("end A: %v", err)
	}
	waitFor(t, "B hearing A left", func() bool {
		for _, p := range rec.PushesTo("B") {
			ev := decodeEvent(t, p.Payload)
			if ev.Event == EventSubscriberUnsub && ev.SubscriberID == "A" {
				return true
			}
		}
		return false
	})

	channels, err := e.ListChannelsForSession(ctx, "A")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("A still subscribed to %v", channels)
	}
}
