// Package redisstore implements store.KeyedStore and store.ChangeFeed on
// Redis primitives so the subscription index can be shared across
// processes.
//
// Design Notes
//   - Record fields: one hash per record, keyed by both key parts
//   - Forward projection: a sorted set per hash key, member = range key,
//     scanned with ZRANGEBYLEX for prefix queries
//   - Reverse projection: a sorted set per range key, member = hash key,
//     maintained on every Put/Delete (the "secondary index")
//   - Change feed: XADD on every mutation, XREAD consumer-group free
//     polling; at-least-once, stream id doubles as the resume cursor
//
// Use memorystore for tests and single-process deployments.
package redisstore
