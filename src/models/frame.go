package models

// -----------------------------------------------------------------------------

// MFrameKind identifies a raw transport frame type.
type MFrameKind int

const (
	FrameText MFrameKind = iota
	FrameBinary
	FramePing
	FramePong
	FrameClose
)

// -----------------------------------------------------------------------------

// String returns a readable frame kind name for log output.
func (k MFrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	}
	return "unknown"
}

// -----------------------------------------------------------------------------

// MFrame is one raw message pulled from the transport channel. Text and
// Binary frames carry payload bytes to decode; Ping carries the bytes to
// echo back in the matching pong; Close carries no payload.
type MFrame struct {
	Kind MFrameKind
	Data []byte
}
