// Package wshub is a gorilla/websocket transport for the chat engine. It
// terminates sessions, assigns their ids, and implements transport.Pusher
// so the fan-out engine can address any live connection by session id.
//
// Each connection gets a buffered send channel drained by a single write
// pump; Push never writes to the socket directly. A full buffer means the
// consumer is too slow and the session is dropped rather than letting one
// connection stall a fan-out.
package wshub
