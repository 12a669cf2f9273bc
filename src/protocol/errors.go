package protocol

import "fmt"

// -----------------------------------------------------------------------------
// Error kinds surfaced by the handshake and streaming pipeline. None of them
// is retried internally: each one is terminal for its connection.
// -----------------------------------------------------------------------------

// DecodeError reports a malformed wire payload. It is fatal to whichever
// component requested the decode.
type DecodeError struct {
	Err error
}

// -----------------------------------------------------------------------------

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed message batch: %v", e.Err)
}

// -----------------------------------------------------------------------------

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------

// ProtocolError reports an unexpected status code during the handshake, an
// empty subscription set, or a service-initiated disconnect.
type ProtocolError struct {
	Reason string
}

// -----------------------------------------------------------------------------

func (e *ProtocolError) Error() string {
	return e.Reason
}

// -----------------------------------------------------------------------------

// NewProtocolError builds a ProtocolError from a format string.
func NewProtocolError(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// -----------------------------------------------------------------------------

// TransportError reports a channel-level failure, including an unexpected
// close while messages were still expected.
type TransportError struct {
	Reason string
	Err    error
}

// -----------------------------------------------------------------------------

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// -----------------------------------------------------------------------------

func (e *TransportError) Unwrap() error {
	return e.Err
}
