package stream

import (
	"context"
	"errors"
	"io"

	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
	"polygon-ingestor/src/protocol"
)

// -----------------------------------------------------------------------------

// Reader is the post-handshake event sequence: it demultiplexes raw frames
// into protocol message batches and projects the data messages into caller
// events. It is a forward-only, single-consumer, non-restartable sequence;
// the first fatal error (decode failure, service disconnect, unexpected
// close) stops it for good and Next returns io.EOF from then on.
//
// Entries of one batch are consumed newest-first (LIFO). The feed gives no
// cross-message ordering guarantee, so the buffer does not pay for FIFO
// semantics; the resulting within-batch reversal is documented, stable and
// relied upon by the tests.
type Reader struct {
	Name    string
	Logger  *logger.Logger
	Channel interfaces.IStreamChannel

	pending []models.MProtocolMessage
	stopped bool
}

// -----------------------------------------------------------------------------

// NewReader wraps a channel whose handshake already completed.
func NewReader(channel interfaces.IStreamChannel, logger *logger.Logger) *Reader {
	return &Reader{
		Name:    "StreamReader",
		Logger:  logger,
		Channel: channel,
	}
}

// -----------------------------------------------------------------------------

// Next returns the next market event. It returns io.EOF when the stream is
// exhausted (clean close or already stopped) and a terminal error for fatal
// conditions. Keep-alive pings are answered transparently.
func (r *Reader) Next(ctx context.Context) (*models.MEvent, error) {
	for {
		if r.stopped {
			return nil, io.EOF
		}

		// Drain the pending batch first, newest entry first.
		if n := len(r.pending); n > 0 {
			message := r.pending[n-1]
			r.pending = r.pending[:n-1]

			if message.IsStatus() {
				if message.Status.Code == models.StatusDisconnected {
					r.stop()
					return nil, protocol.NewProtocolError("service disconnected client: %s", message.Status.Message)
				}
				// Residual acknowledgements after the handshake carry no
				// information for the caller.
				continue
			}

			return message.Event, nil
		}

		frame, err := r.Channel.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.stop()
				return nil, io.EOF
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			r.stop()
			return nil, &protocol.TransportError{Reason: "failed to read from channel", Err: err}
		}

		switch frame.Kind {
		case models.FrameText, models.FrameBinary:
			batch, err := protocol.DecodeBatch(frame.Data)
			if err != nil {
				r.stop()
				return nil, err
			}
			r.pending = batch

		case models.FramePing:
			if err := r.Channel.WritePong(frame.Data); err != nil {
				r.stop()
				return nil, &protocol.TransportError{Reason: "failed to answer keep-alive ping", Err: err}
			}

		case models.FramePong:
			// Ignored.

		case models.FrameClose:
			r.stop()
			return nil, io.EOF
		}
	}
}

// -----------------------------------------------------------------------------

// Close stops the sequence and closes the underlying channel. Pending
// batch entries are discarded.
func (r *Reader) Close() error {
	if r.stopped {
		return nil
	}
	r.stop()
	return r.Channel.Close()
}

// -----------------------------------------------------------------------------

// stop marks the sequence terminal and drops any buffered entries.
func (r *Reader) stop() {
	r.stopped = true
	r.pending = nil
}
