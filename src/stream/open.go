package stream

import (
	"context"

	"polygon-ingestor/src/handshake"
	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
)

// -----------------------------------------------------------------------------

// Open is the caller-facing entry point of the streaming pipeline: it
// connects the channel, drives the full handshake, and hands back the lazy
// event sequence. On any handshake failure the channel is closed and no
// partial state survives; the caller reconnects from scratch.
func Open(ctx context.Context, channel interfaces.IStreamChannel, log *logger.Logger, apiKey string, subscriptions []models.MSubscription) (*Reader, error) {
	if err := channel.Connect(ctx); err != nil {
		return nil, err
	}

	driver := handshake.New(channel, log)
	if err := driver.Run(ctx, apiKey, subscriptions); err != nil {
		channel.Close()
		return nil, err
	}

	return NewReader(channel, log), nil
}
