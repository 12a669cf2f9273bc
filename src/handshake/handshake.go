package handshake

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
// Handshake driver. After the channel is dialed the service expects a strict
// sequence: a server-initiated "connected" status, then authentication, then
// subscription, each step confirmed by one or more status messages. Data
// messages may arrive interleaved with (and even before) the confirmations
// they relate to, so every awaiting step counts matching statuses instead of
// assuming one reply per request.
// -----------------------------------------------------------------------------

// Handshake sequences Connect -> Authenticate -> Subscribe over a channel.
type Handshake struct {
	Name    string
	Logger  *logger.Logger
	Channel interfaces.IStreamChannel
}

// -----------------------------------------------------------------------------

// New creates a handshake driver bound to a connected channel.
func New(channel interfaces.IStreamChannel, logger *logger.Logger) *Handshake {
	return &Handshake{
		Name:    "Handshake",
		Logger:  logger,
		Channel: channel,
	}
}

// -----------------------------------------------------------------------------

// Run drives the full handshake. On success the channel is ready for event
// consumption; on failure the connection is unusable and no partial
// handshake state is reused.
func (h *Handshake) Run(ctx context.Context, apiKey string, subscriptions []models.MSubscription) error {
	// Build the subscribe parameters first: an empty subscription set fails
	// fast, before any channel traffic.
	params, count, err := models.JoinSubscriptionParams(subscriptions)
	if err != nil {
		return protocol.NewProtocolError("failed to subscribe to event stream: %v", err)
	}

	// Initial confirmation of connection (server-initiated, nothing to send).
	if err := h.awaitStatus(ctx, models.StatusConnected, 1, "connection"); err != nil {
		return err
	}

	if err := h.authenticate(ctx, apiKey); err != nil {
		return err
	}

	if err := h.subscribe(ctx, params, count); err != nil {
		return err
	}

	h.Logger.Info("%s : handshake complete, %d subscriptions confirmed", h.Name, count)
	return nil
}

// -----------------------------------------------------------------------------

// authenticate sends the auth request and awaits its confirmation.
func (h *Handshake) authenticate(ctx context.Context, apiKey string) error {
	request, err := protocol.EncodeAuthRequest(apiKey)
	if err != nil {
		return err
	}

	if err := h.Channel.WriteText(request); err != nil {
		h.Logger.Error("%s : failed to send auth request: %v", h.Name, err)
		return &protocol.TransportError{Reason: "failed to send auth request", Err: err}
	}

	return h.awaitStatus(ctx, models.StatusAuthSuccess, 1, "authentication")
}

// -----------------------------------------------------------------------------

// subscribe sends one comma-joined subscribe request and awaits one success
// status per subscription. Batching all subscriptions into a single request
// keeps the round trips down; the service still acknowledges each one.
func (h *Handshake) subscribe(ctx context.Context, params string, count int) error {
	h.Logger.Debug("%s : subscribing to %s", h.Name, params)

	request, err := protocol.EncodeSubscribeRequest(params)
	if err != nil {
		return err
	}

	if err := h.Channel.WriteText(request); err != nil {
		h.Logger.Error("%s : failed to send subscribe request: %v", h.Name, err)
		return &protocol.TransportError{Reason: "failed to send subscribe request", Err: err}
	}

	return h.awaitStatus(ctx, models.StatusSuccess, count, "subscription")
}

// -----------------------------------------------------------------------------

// awaitStatus reads frames until `remaining` statuses of the expected code
// have been observed. Keep-alive pings are answered and never counted; a
// close frame or channel exhaustion while confirmations are still owed is
// fatal.
func (h *Handshake) awaitStatus(ctx context.Context, expected models.MStatusCode, remaining int, operation string) error {
	for remaining > 0 {
		frame, err := h.Channel.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &protocol.TransportError{Reason: "connection closed unexpectedly"}
			}
			return &protocol.TransportError{Reason: "failed to read from channel", Err: err}
		}

		switch frame.Kind {
		case models.FrameText, models.FrameBinary:
			batch, err := protocol.DecodeBatch(frame.Data)
			if err != nil {
				return err
			}
			remaining, err = checkBatch(batch, expected, remaining, operation)
			if err != nil {
				return err
			}

		case models.FramePing:
			if err := h.Channel.WritePong(frame.Data); err != nil {
				return &protocol.TransportError{Reason: "failed to answer keep-alive ping", Err: err}
			}

		case models.FramePong:
			// Ignored.

		case models.FrameClose:
			return &protocol.TransportError{Reason: "connection closed unexpectedly"}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// checkBatch scans one decoded batch for status confirmations. Data messages
// are skipped: the service does not guarantee that a confirmation arrives
// before the events it unlocks. A status of the wrong code fails the
// operation immediately with the service-provided message text; scanning
// stops early once the count is satisfied.
func checkBatch(batch []models.MProtocolMessage, expected models.MStatusCode, remaining int, operation string) (int, error) {
	for _, message := range batch {
		if !message.IsStatus() {
			continue
		}

		if message.Status.Code != expected {
			return remaining, protocol.NewProtocolError("%s not successful: %s", operation, message.Status.Message)
		}

		remaining--
		if remaining <= 0 {
			break
		}
	}
	return remaining, nil
}
