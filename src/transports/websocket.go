package transports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
	"polygon-ingestor/src/utils"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------

// frameResult pairs a received frame with a terminal read error. Exactly one
// of the two fields is set.
type frameResult struct {
	frame *models.MFrame
	err   error
}

// -----------------------------------------------------------------------------

// WebSocketChannel implements interfaces.IStreamChannel using Gorilla
// WebSocket. A single reader goroutine feeds frames into a channel so that
// control frames (ping/close) are surfaced to the pull-based consumer in
// arrival order. There is no reconnect logic here: a dropped connection is
// terminal and the caller owns the decision to dial again.
type WebSocketChannel struct {
	conn      *websocket.Conn
	name      string
	endpoint  string
	logger    *logger.Logger
	isRunning bool
	mu        sync.RWMutex
	writeMu   sync.Mutex
	frames    chan frameResult
	done      chan struct{}
}

// -----------------------------------------------------------------------------

// NewWebSocketChannel creates a new WebSocket channel for the given stream
// endpoint.
func NewWebSocketChannel(endpoint string, logger *logger.Logger, name string) *WebSocketChannel {
	return &WebSocketChannel{
		name:     name,
		endpoint: endpoint,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Connect establishes the WebSocket connection and starts the reader.
func (w *WebSocketChannel) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("channel %s already connected", w.name)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		w.logger.Error("%s : failed to connect to %s: %v", w.name, utils.MaskAPIKey(w.endpoint), err)
		return fmt.Errorf("failed to connect to %s: %w", utils.MaskAPIKey(w.endpoint), err)
	}

	frames := make(chan frameResult, 16)
	done := make(chan struct{})

	w.conn = conn
	w.isRunning = true
	w.frames = frames
	w.done = done

	// Surface control frames to the consumer instead of auto-answering:
	// the streaming pipeline owns the pong replies.
	conn.SetPingHandler(func(appData string) error {
		deliver(frames, done, frameResult{frame: &models.MFrame{Kind: models.FramePing, Data: []byte(appData)}})
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		deliver(frames, done, frameResult{frame: &models.MFrame{Kind: models.FramePong, Data: []byte(appData)}})
		return nil
	})

	w.logger.Info("%s : WebSocket connected to %s", w.name, utils.MaskAPIKey(w.endpoint))

	// The reader owns private references to this session's conn and
	// channels, so neither Close nor a later Connect can yank them out from
	// under a read in flight.
	go w.readLoop(conn, frames, done)

	return nil
}

// -----------------------------------------------------------------------------

// ReadFrame blocks until the next frame arrives, the context is cancelled,
// or the connection is gone (io.EOF).
func (w *WebSocketChannel) ReadFrame(ctx context.Context) (*models.MFrame, error) {
	w.mu.RLock()
	frames, done := w.frames, w.done
	w.mu.RUnlock()

	if frames == nil {
		return nil, fmt.Errorf("channel %s is not connected", w.name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-frames:
		if result.err != nil {
			return nil, result.err
		}
		return result.frame, nil
	case <-done:
		return nil, io.EOF
	}
}

// -----------------------------------------------------------------------------

// WriteText sends one text message.
func (w *WebSocketChannel) WriteText(data []byte) error {
	conn, err := w.current()
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send text message: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// WritePong answers a keep-alive ping with the matching payload.
func (w *WebSocketChannel) WritePong(data []byte) error {
	conn, err := w.current()
	if err != nil {
		return err
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	deadline := time.Now().Add(10 * time.Second)
	if err := conn.WriteControl(websocket.PongMessage, data, deadline); err != nil {
		return fmt.Errorf("failed to send pong: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// current returns the live connection, or an error once the channel is
// disconnected.
func (w *WebSocketChannel) current() (*websocket.Conn, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.conn == nil || !w.isRunning {
		return nil, fmt.Errorf("channel %s is not connected", w.name)
	}
	return w.conn, nil
}

// -----------------------------------------------------------------------------

// Close tears down the connection. Safe to call more than once.
func (w *WebSocketChannel) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return nil
	}

	w.isRunning = false
	close(w.done)

	// The conn pointer stays set: the reader goroutine and any in-flight
	// write still hold references, and they detect the close through the
	// connection itself.
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %s: %w", utils.MaskAPIKey(w.endpoint), err)
		}
	}

	w.logger.Info("%s : WebSocket disconnected from %s", w.name, utils.MaskAPIKey(w.endpoint))
	return nil
}

// -----------------------------------------------------------------------------

// GetName returns the channel name
func (w *WebSocketChannel) GetName() string {
	return w.name
}

// -----------------------------------------------------------------------------

// GetType returns the transport type
func (w *WebSocketChannel) GetType() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

// IsRunning returns the connection status
func (w *WebSocketChannel) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// -----------------------------------------------------------------------------

// readLoop pulls messages off the connection and feeds the frame channel
// until the connection dies or Close is called.
func (w *WebSocketChannel) readLoop(conn *websocket.Conn, frames chan frameResult, done chan struct{}) {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			deliver(frames, done, frameResult{err: w.mapReadError(err, frames, done)})
			return
		}

		switch messageType {
		case websocket.TextMessage:
			deliver(frames, done, frameResult{frame: &models.MFrame{Kind: models.FrameText, Data: message}})
		case websocket.BinaryMessage:
			deliver(frames, done, frameResult{frame: &models.MFrame{Kind: models.FrameBinary, Data: message}})
		}
	}
}

// -----------------------------------------------------------------------------

// mapReadError normalizes terminal read errors: a server close frame becomes
// a FrameClose delivery followed by io.EOF, a locally closed connection is a
// plain io.EOF, anything else is passed through.
func (w *WebSocketChannel) mapReadError(err error, frames chan frameResult, done chan struct{}) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		deliver(frames, done, frameResult{frame: &models.MFrame{Kind: models.FrameClose}})
		return io.EOF
	}

	select {
	case <-done:
		return io.EOF
	default:
	}

	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}

	w.logger.Error("%s : websocket read error: %v", w.name, err)
	return err
}

// -----------------------------------------------------------------------------

// deliver pushes a result to the consumer unless the session was closed.
func deliver(frames chan frameResult, done chan struct{}, result frameResult) {
	select {
	case frames <- result:
	case <-done:
	}
}
