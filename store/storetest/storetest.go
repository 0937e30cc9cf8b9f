// Package storetest provides a conformance suite for store.KeyedStore +
// store.ChangeFeed implementations. Backends run the whole suite from a
// one-line test.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chatfan/chatfan-go/store"
)

// Backend is the combined surface the suite exercises.
type Backend interface {
	store.KeyedStore
	store.ChangeFeed
}

// Factory creates a fresh, isolated backend for one subtest.
type Factory func(t *testing.T) Backend

// RunStoreTests runs the complete conformance suite against the factory.
func RunStoreTests(t *testing.T, factory Factory) {
	t.Run("PutAndQueryOrdering", func(t *testing.T) { testPutAndQueryOrdering(t, factory) })
	t.Run("QueryPrefixScoping", func(t *testing.T) { testQueryPrefixScoping(t, factory) })
	t.Run("ReverseIndexSymmetry", func(t *testing.T) { testReverseIndexSymmetry(t, factory) })
	t.Run("PutOverwrites", func(t *testing.T) { testPutOverwrites(t, factory) })
	t.Run("DeleteAbsentIsNoop", func(t *testing.T) { testDeleteAbsentIsNoop(t, factory) })
	t.Run("DeleteRemovesBothProjections", func(t *testing.T) { testDeleteRemovesBothProjections(t, factory) })
	t.Run("FeedEmitsKinds", func(t *testing.T) { testFeedEmitsKinds(t, factory) })
	t.Run("FeedOrderedPerKey", func(t *testing.T) { testFeedOrderedPerKey(t, factory) })
}

func put(t *testing.T, b Backend, hash, rng string, fields map[string]string) {
	t.Helper()
	if err := b.Put(context.Background(), store.Record{
		Key:    store.Key{HashKey: hash, RangeKey: rng},
		Fields: fields,
	}); err != nil {
		t.Fatalf("Put(%s, %s): %v", hash, rng, err)
	}
}

func testPutAndQueryOrdering(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	// Inserted out of range-key order on purpose.
	put(t, b, "room|a", "member|3", nil)
	put(t, b, "room|a", "member|1", map[string]string{"nick": "one"})
	put(t, b, "room|a", "member|2", nil)

	recs, err := b.Query(ctx, "room|a", "member|")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	for i, want := range []string{"member|1", "member|2", "member|3"} {
		if recs[i].RangeKey != want {
			t.Errorf("recs[%d].RangeKey = %q, want %q", i, recs[i].RangeKey, want)
		}
	}
	if recs[0].Fields["nick"] != "one" {
		t.Errorf("fields not round-tripped: %v", recs[0].Fields)
	}
}

func testQueryPrefixScoping(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	put(t, b, "room|a", "member|1", nil)
	put(t, b, "room|a", "note|1", nil)
	put(t, b, "room|b", "member|9", nil)

	recs, err := b.Query(ctx, "room|a", "member|")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 || recs[0].RangeKey != "member|1" {
		t.Fatalf("prefix scoping leaked: %+v", recs)
	}

	recs, err = b.Query(ctx, "room|missing", "member|")
	if err != nil {
		t.Fatalf("Query missing hash: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("query of unknown hash returned %d records", len(recs))
	}
}

func testReverseIndexSymmetry(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	put(t, b, "room|a", "member|1", nil)
	put(t, b, "room|b", "member|1", nil)
	put(t, b, "room|c", "member|2", nil)

	recs, err := b.QueryReverse(ctx, "member|1", "room|")
	if err != nil {
		t.Fatalf("QueryReverse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(recs), recs)
	}
	for i, want := range []string{"room|a", "room|b"} {
		if recs[i].HashKey != want {
			t.Errorf("recs[%d].HashKey = %q, want %q", i, recs[i].HashKey, want)
		}
		if recs[i].RangeKey != "member|1" {
			t.Errorf("recs[%d].RangeKey = %q", i, recs[i].RangeKey)
		}
	}
}

func testPutOverwrites(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	put(t, b, "room|a", "member|1", map[string]string{"nick": "old", "stale": "yes"})
	put(t, b, "room|a", "member|1", map[string]string{"nick": "new"})

	recs, err := b.Query(ctx, "room|a", "member|")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("overwrite duplicated the record: %d", len(recs))
	}
	if recs[0].Fields["nick"] != "new" {
		t.Errorf("nick = %q, want new", recs[0].Fields["nick"])
	}
	if _, ok := recs[0].Fields["stale"]; ok {
		t.Errorf("overwrite kept a field from the previous record")
	}
}

func testDeleteAbsentIsNoop(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	if err := b.Delete(ctx, store.Key{HashKey: "room|a", RangeKey: "member|404"}); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
}

func testDeleteRemovesBothProjections(t *testing.T, factory Factory) {
	b := factory(t)
	ctx := context.Background()

	put(t, b, "room|a", "member|1", nil)
	put(t, b, "room|a", "member|2", nil)

	if err := b.Delete(ctx, store.Key{HashKey: "room|a", RangeKey: "member|1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	recs, err := b.Query(ctx, "room|a", "member|")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 || recs[0].RangeKey != "member|2" {
		t.Fatalf("forward projection after delete: %+v", recs)
	}

	recs, err = b.QueryReverse(ctx, "member|1", "room|")
	if err != nil {
		t.Fatalf("QueryReverse: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("reverse projection kept deleted record: %+v", recs)
	}
}

// collector gathers feed records behind a subscription started before the
// mutations under test.
type collector struct {
	mu   sync.Mutex
	recs []store.ChangeRecord
}

func (c *collector) handle(_ context.Context, rec store.ChangeRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func (c *collector) snapshot() []store.ChangeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.ChangeRecord(nil), c.recs...)
}

func subscribe(t *testing.T, ctx context.Context, b Backend) *collector {
	t.Helper()
	c := &collector{}
	go func() {
		_ = b.Subscribe(ctx, "", c.handle)
	}()
	// Let the subscription register before the mutations start; empty
	// cursors only see future changes.
	time.Sleep(100 * time.Millisecond)
	return c
}

func waitForRecords(t *testing.T, c *collector, n int) []store.ChangeRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if recs := c.snapshot(); len(recs) >= n {
			return recs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d change records, have %d", n, len(c.snapshot()))
	return nil
}

func testFeedEmitsKinds(t *testing.T, factory Factory) {
	b := factory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := subscribe(t, ctx, b)

	put(t, b, "room|a", "member|1", nil)
	put(t, b, "room|a", "member|1", map[string]string{"nick": "n"})
	if err := b.Delete(ctx, store.Key{HashKey: "room|a", RangeKey: "member|1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// A second delete of the same key must not reach the feed.
	if err := b.Delete(ctx, store.Key{HashKey: "room|a", RangeKey: "member|1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	recs := waitForRecords(t, c, 3)
	wantKinds := []store.ChangeKind{store.ChangeInsert, store.ChangeUpdate, store.ChangeRemove}
	for i, want := range wantKinds {
		if recs[i].Kind != want {
			t.Errorf("recs[%d].Kind = %q, want %q", i, recs[i].Kind, want)
		}
		if recs[i].HashKey != "room|a" || recs[i].RangeKey != "member|1" {
			t.Errorf("recs[%d] key = %+v", i, recs[i].Key)
		}
		if recs[i].Seq == "" {
			t.Errorf("recs[%d] missing Seq", i)
		}
	}

	time.Sleep(100 * time.Millisecond)
	if got := c.snapshot(); len(got) > 3 {
		t.Fatalf("delete of absent key emitted a change: %+v", got[3:])
	}
}

func testFeedOrderedPerKey(t *testing.T, factory Factory) {
	b := factory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := subscribe(t, ctx, b)

	const n = 10
	for i := 0; i < n; i++ {
		put(t, b, "room|a", "member|1", map[string]string{"i": string(rune('a' + i))})
	}

	recs := waitForRecords(t, c, n)
	seen := make(map[string]bool)
	for i, rec := range recs[:n] {
		// Arrival order is mutation order; Seq values only need to be
		// unique cursors.
		if rec.Seq == "" || seen[rec.Seq] {
			t.Fatalf("recs[%d].Seq %q empty or repeated", i, rec.Seq)
		}
		seen[rec.Seq] = true
		wantKind := store.ChangeUpdate
		if i == 0 {
			wantKind = store.ChangeInsert
		}
		if rec.Kind != wantKind {
			t.Errorf("recs[%d].Kind = %q, want %q", i, rec.Kind, wantKind)
		}
	}
}
