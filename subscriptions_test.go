package chatfan

import (
	"context"
	"slices"
	"testing"
)

func TestJoinIsBidirectional(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Join(ctx, "General", "S1"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	sessions, err := e.ListSessionsForChannel(ctx, "General")
	if err != nil {
		t.Fatalf("ListSessionsForChannel: %v", err)
	}
	if !slices.Contains(sessions, "S1") {
		t.Fatalf("sessions = %v, want S1", sessions)
	}

	channels, err := e.ListChannelsForSession(ctx, "S1")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if !slices.Contains(channels, "General") {
		t.Fatalf("channels = %v, want General", channels)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Join(ctx, "General", "S1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := e.Join(ctx, "General", "S1"); err != nil {
		t.Fatalf("second Join: %v", err)
	}

	sessions, err := e.ListSessionsForChannel(ctx, "General")
	if err != nil {
		t.Fatalf("ListSessionsForChannel: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %v, want exactly one S1", sessions)
	}
}

func TestLeaveRemovesBothListings(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Join(ctx, "General", "S1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := e.Leave(ctx, "General", "S1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	sessions, err := e.ListSessionsForChannel(ctx, "General")
	if err != nil {
		t.Fatalf("ListSessionsForChannel: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("sessions = %v, want empty", sessions)
	}
	channels, err := e.ListChannelsForSession(ctx, "S1")
	if err != nil {
		t.Fatalf("ListChannelsForSession: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("channels = %v, want empty", channels)
	}
}

func TestLeaveNeverJoinedIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if err := e.Leave(context.Background(), "General", "ghost"); err != nil {
		t.Fatalf("Leave of never-joined pair: %v", err)
	}
}
