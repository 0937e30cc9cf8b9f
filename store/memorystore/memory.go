package memorystore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chatfan/chatfan-go/store"
)

// Store is an in-memory store.KeyedStore with an ordered change feed.
type Store struct {
	mu      sync.Mutex
	records map[store.Key]map[string]string
	closed  bool

	seq     int64
	changes []store.ChangeRecord
	subs    map[*subscription]struct{}
}

type subscription struct {
	// notify is signaled (capacity 1, non-blocking) whenever the change
	// log grows.
	notify chan struct{}
}

func New() *Store {
	return &Store{
		records: make(map[store.Key]map[string]string),
		subs:    make(map[*subscription]struct{}),
	}
}

// Close stops all feed subscriptions and rejects further operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for sub := range s.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *Store) Put(ctx context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	kind := store.ChangeInsert
	if _, ok := s.records[rec.Key]; ok {
		kind = store.ChangeUpdate
	}

	fields := make(map[string]string, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	s.records[rec.Key] = fields
	s.appendChangeLocked(rec.Key, kind)
	return nil
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	if _, ok := s.records[key]; !ok {
		// Deleting an absent record is a no-op and emits nothing.
		return nil
	}
	delete(s.records, key)
	s.appendChangeLocked(key, store.ChangeRemove)
	return nil
}

func (s *Store) Query(ctx context.Context, hashKey, rangePrefix string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	var recs []store.Record
	for key, fields := range s.records {
		if key.HashKey == hashKey && strings.HasPrefix(key.RangeKey, rangePrefix) {
			recs = append(recs, store.Record{Key: key, Fields: cloneFields(fields)})
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RangeKey < recs[j].RangeKey })
	return recs, nil
}

func (s *Store) QueryReverse(ctx context.Context, rangeKey, hashPrefix string) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	var recs []store.Record
	for key, fields := range s.records {
		if key.RangeKey == rangeKey && strings.HasPrefix(key.HashKey, hashPrefix) {
			recs = append(recs, store.Record{Key: key, Fields: cloneFields(fields)})
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].HashKey < recs[j].HashKey })
	return recs, nil
}

// Subscribe implements store.ChangeFeed. The cursor is the Seq of the last
// record already consumed; an empty cursor delivers only future changes.
func (s *Store) Subscribe(ctx context.Context, from string, handler store.ChangeHandler) error {
	sub := &subscription{notify: make(chan struct{}, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	next := len(s.changes)
	if from != "" {
		// Seq values are zero-padded, so lexicographic order is numeric
		// order and the resume point is a simple scan.
		next = 0
		for i := range s.changes {
			if s.changes[i].Seq <= from {
				next = i + 1
			}
		}
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		closed := s.closed
		pending := append([]store.ChangeRecord(nil), s.changes[next:]...)
		s.mu.Unlock()

		for _, rec := range pending {
			if err := handler(ctx, rec); err != nil {
				return err
			}
			next++
		}
		if closed {
			return store.ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.notify:
		}
	}
}

func (s *Store) appendChangeLocked(key store.Key, kind store.ChangeKind) {
	s.seq++
	s.changes = append(s.changes, store.ChangeRecord{
		Key:  key,
		Kind: kind,
		Seq:  fmt.Sprintf("%020d", s.seq),
	})
	for sub := range s.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

func cloneFields(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
