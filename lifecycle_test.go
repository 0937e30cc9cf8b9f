package chatfan

import (
	"context"
	"testing"
)

func TestSessionStartJoinsDefaultChannel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.OnSessionStart(ctx, "S1"); err != nil {
		t.Fatalf("OnSessionStart: %v", err)
	}
	channels, err := e.ListChannelsForSession(ctx, "S1")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if len(channels) != 1 || channels[0] != "General" {
		t.Fatalf("channels = %v, want [General]", channels)
	}
}

func TestSessionStartHonorsConfiguredChannel(t *testing.T) {
	e, _, _ := newTestEngine(t, WithDefaultChannel("Lobby"))
	ctx := context.Background()

	if err := e.OnSessionStart(ctx, "S1"); err != nil {
		t.Fatalf("OnSessionStart: %v", err)
	}
	channels, err := e.ListChannelsForSession(ctx, "S1")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if len(channels) != 1 || channels[0] != "Lobby" {
		t.Fatalf("channels = %v, want [Lobby]", channels)
	}
}

func TestSessionEndIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.OnSessionStart(ctx, "S1"); err != nil {
		t.Fatalf("OnSessionStart: %v", err)
	}
	for _, ch := range []string{"dev", "random", "support"} {
		if err := e.Join(ctx, ch, "S1"); err != nil {
			t.Fatalf("Join %s: %v", ch, err)
		}
	}

	for i := 0; i < 2; i++ {
		if err := e.OnSessionEnd(ctx, "S1"); err != nil {
			t.Fatalf("OnSessionEnd #%d: %v", i+1, err)
		}
		channels, err := e.ListChannelsForSession(ctx, "S1")
		if err != nil {
			t.Fatalf("ListChannelsForSession: %v", err)
		}
		if len(channels) != 0 {
			t.Fatalf("after end #%d, channels = %v", i+1, channels)
		}
	}
}

func TestSessionEndWithNoSubscriptions(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if err := e.OnSessionEnd(context.Background(), "never-started"); err != nil {
		t.Fatalf("OnSessionEnd: %v", err)
	}
}
