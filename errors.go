package chatfan

import "fmt"

// StoreError wraps a keyed-store failure. The triggering operation is
// aborted; each write is a single record, so no partial commit exists.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// DeliveryError records a failed push to a single recipient. It is
// reported, never allowed to abort sibling deliveries in the same
// fan-out.
type DeliveryError struct {
	SessionID string
	Err       error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("push to %s: %v", e.SessionID, e.Err) }
func (e *DeliveryError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed action before any store mutation is
// attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid action: " + e.Msg }
