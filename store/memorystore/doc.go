// Package memorystore is the in-memory reference implementation of
// store.KeyedStore and store.ChangeFeed. It keeps every record and the
// full change log in process memory, so it suits tests and single-process
// deployments; use redisstore where the index must outlive the process or
// be shared across processes.
package memorystore
