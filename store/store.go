// Package store defines the keyed-store contract the chat core runs
// against: single-record writes over a composite (hash, range) key, prefix
// scans over either projection of the key, and an ordered at-least-once
// change feed describing every mutation.
//
// Implementations
//
//	memorystore : in-memory reference used for tests / single-process use
//	redisstore  : Redis-backed implementation for multi-process deployments
package store

import (
	"context"
	"errors"
)

// Key addresses one record. HashKey groups records; RangeKey orders them
// within the group.
type Key struct {
	HashKey  string
	RangeKey string
}

// Record is a single stored row. Fields may be nil for records whose key
// alone carries all the information (subscription rows).
type Record struct {
	Key
	Fields map[string]string
}

// KeyedStore is the minimal storage contract the engine needs. Writes are
// immediately visible to subsequent reads from the same process. There is
// no cross-record transaction primitive; callers must not need one.
type KeyedStore interface {
	// Put upserts a single record. Writing the same key twice overwrites
	// the previous fields whole.
	Put(ctx context.Context, rec Record) error

	// Delete removes a record. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key Key) error

	// Query returns the records whose hash key equals hashKey and whose
	// range key begins with rangePrefix, ordered by range key.
	Query(ctx context.Context, hashKey, rangePrefix string) ([]Record, error)

	// QueryReverse scans the secondary index with the key parts swapped:
	// records whose RANGE key equals rangeKey and whose HASH key begins
	// with hashPrefix, ordered by hash key.
	QueryReverse(ctx context.Context, rangeKey, hashPrefix string) ([]Record, error)
}

// ChangeKind identifies the mutation a ChangeRecord describes.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// ChangeRecord describes one observed mutation. Seq is a feed-assigned
// identifier, unique and increasing within the feed, usable as a resume
// cursor.
type ChangeRecord struct {
	Key
	Kind ChangeKind
	Seq  string
}

// ChangeHandler consumes one change record. Returning an error stops the
// subscription and surfaces the error from Subscribe.
type ChangeHandler func(ctx context.Context, rec ChangeRecord) error

// ChangeFeed delivers change records at least once, in per-key order.
// Consumers must tolerate redelivery of the same record.
type ChangeFeed interface {
	// Subscribe blocks, invoking handler for each change record after the
	// cursor from (empty means only future changes), until ctx ends or the
	// handler returns an error.
	Subscribe(ctx context.Context, from string, handler ChangeHandler) error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")
