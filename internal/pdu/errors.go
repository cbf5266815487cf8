package pdu

import "fmt"

// ConnectionError means the device web UI could not be reached or the
// browser session could not be established.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("device %s not reachable: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError means the device page did not match the expected
// structure. Step identifies the field, trigger or dialog that failed so
// remote failures are debuggable.
type ProtocolError struct {
	Step string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("device protocol error at %s: %v", e.Step, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TimeoutError means an apply trigger or confirmation dialog exceeded its
// wait budget. These operations are never retried automatically.
type TimeoutError struct {
	Step string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.Step)
}

// ValidationError means a caller-supplied value failed format checks
// before anything was written to the device.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Field)
}

// NotFoundError means no device with the given address is known to the
// registry or the inventory store.
type NotFoundError struct {
	Address string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no device registered at %s", e.Address)
}
