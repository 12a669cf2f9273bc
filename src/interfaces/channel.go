package interfaces

import (
	"context"

	"polygon-ingestor/src/models"
)

// -----------------------------------------------------------------------------

// IStreamChannel defines the interface for the raw duplex message channel the
// handshake and streaming pipeline sit on. Reads are pull-based: the whole
// session runs as one logical task that suspends on ReadFrame and the write
// calls. ReadFrame returns io.EOF once the underlying connection is gone; a
// server close frame is surfaced as a FrameClose frame first.
type IStreamChannel interface {
	// Connect establishes the underlying connection.
	Connect(ctx context.Context) error

	// ReadFrame blocks until the next raw frame arrives.
	ReadFrame(ctx context.Context) (*models.MFrame, error)

	// WriteText sends one text message.
	WriteText(data []byte) error

	// WritePong answers a keep-alive ping with the matching payload.
	WritePong(data []byte) error

	// Close tears down the connection. Safe to call more than once.
	Close() error

	// IsRunning returns the connection status.
	IsRunning() bool

	// GetName returns the channel name (for logging).
	GetName() string

	// GetType returns the transport type.
	GetType() string
}
