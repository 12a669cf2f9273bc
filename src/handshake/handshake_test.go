package handshake

import (
	"context"
	"errors"
	"io"
	"testing"

	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
	"polygon-ingestor/src/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Test doubles
// -----------------------------------------------------------------------------

// scriptedChannel replays a fixed sequence of frames and records every write.
// Once the script is exhausted ReadFrame reports io.EOF, matching a channel
// whose connection is gone.
type scriptedChannel struct {
	frames []*models.MFrame
	next   int

	writes [][]byte
	pongs  [][]byte

	reads  int
	closed bool
}

func text(payload string) *models.MFrame {
	return &models.MFrame{Kind: models.FrameText, Data: []byte(payload)}
}

func (c *scriptedChannel) Connect(ctx context.Context) error { return nil }

func (c *scriptedChannel) ReadFrame(ctx context.Context) (*models.MFrame, error) {
	c.reads++
	if c.next >= len(c.frames) {
		return nil, io.EOF
	}
	frame := c.frames[c.next]
	c.next++
	return frame, nil
}

func (c *scriptedChannel) WriteText(data []byte) error {
	c.writes = append(c.writes, data)
	return nil
}

func (c *scriptedChannel) WritePong(data []byte) error {
	c.pongs = append(c.pongs, data)
	return nil
}

func (c *scriptedChannel) Close() error {
	c.closed = true
	return nil
}

func (c *scriptedChannel) IsRunning() bool { return !c.closed }
func (c *scriptedChannel) GetName() string { return "scripted" }
func (c *scriptedChannel) GetType() string { return "scripted" }

// -----------------------------------------------------------------------------

const (
	connectedFrame   = `[{"ev":"status","status":"connected","message":"Connected Successfully"}]`
	authSuccessFrame = `[{"ev":"status","status":"auth_success","message":"authenticated"}]`
	authFailedFrame  = `[{"ev":"status","status":"auth_failed","message":"authentication failed"}]`
	successFrame     = `[{"ev":"status","status":"success","message":"subscribed to: T.MSFT"}]`
	tradeFrame       = `[{"ev":"T","sym":"MSFT","x":4,"p":114.125,"s":100,"t":1536036818784}]`
)

func run(t *testing.T, channel *scriptedChannel, subscriptions []models.MSubscription) error {
	t.Helper()
	h := New(channel, logger.NewLogger("test"))
	return h.Run(context.Background(), "USER12345678", subscriptions)
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestHandshakeSuccess(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authSuccessFrame),
		text(successFrame),
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.NoError(t, err)

	require.Len(t, channel.writes, 2)
	assert.Equal(t, `{"action":"auth","params":"USER12345678"}`, string(channel.writes[0]))
	assert.Equal(t, `{"action":"subscribe","params":"T.MSFT"}`, string(channel.writes[1]))
}

func TestHandshakeJoinsSubscriptionsIntoOneRequest(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authSuccessFrame),
		text(successFrame),
		text(`[{"ev":"status","status":"success","message":"subscribed to: Q.*"}]`),
	}}

	err := run(t, channel, []models.MSubscription{
		models.NewSubscription(models.KindTrade, "MSFT"),
		models.NewSubscriptionAll(models.KindQuote),
	})
	require.NoError(t, err)

	require.Len(t, channel.writes, 2)
	assert.Equal(t, `{"action":"subscribe","params":"T.MSFT,Q.*"}`, string(channel.writes[1]))
}

func TestHandshakeAuthFailure(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authFailedFrame),
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.Error(t, err)

	var protocolErr *protocol.ProtocolError
	require.True(t, errors.As(err, &protocolErr))
	assert.Equal(t, "authentication not successful: authentication failed", protocolErr.Reason)

	// The subscribe request must never have been sent.
	require.Len(t, channel.writes, 1)
}

func TestHandshakeWrongStatusDuringConnection(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(authSuccessFrame),
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.Error(t, err)

	var protocolErr *protocol.ProtocolError
	require.True(t, errors.As(err, &protocolErr))
	assert.Contains(t, protocolErr.Reason, "connection not successful")
}

func TestHandshakeInterleavedDataBeforeConfirmation(t *testing.T) {
	// A trade can arrive before the success status that confirms its own
	// subscription; the confirmation counter must skip it.
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authSuccessFrame),
		text(tradeFrame),
		text(successFrame),
		text(`[{"ev":"status","status":"success","message":"subscribed to: Q.*"}]`),
	}}

	err := run(t, channel, []models.MSubscription{
		models.NewSubscription(models.KindTrade, "MSFT"),
		models.NewSubscriptionAll(models.KindQuote),
	})
	require.NoError(t, err)
}

func TestHandshakeMixedBatchCountsAllConfirmations(t *testing.T) {
	// Both confirmations and a data message share one frame.
	mixed := `[
		{"ev":"status","status":"success","message":"subscribed to: T.MSFT"},
		{"ev":"T","sym":"MSFT","x":4,"p":114.125,"s":100,"t":1536036818784},
		{"ev":"status","status":"success","message":"subscribed to: Q.*"}
	]`
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authSuccessFrame),
		text(mixed),
	}}

	err := run(t, channel, []models.MSubscription{
		models.NewSubscription(models.KindTrade, "MSFT"),
		models.NewSubscriptionAll(models.KindQuote),
	})
	require.NoError(t, err)
}

func TestHandshakeEmptySubscriptionsFailsFast(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
	}}

	err := run(t, channel, nil)
	require.Error(t, err)

	var protocolErr *protocol.ProtocolError
	require.True(t, errors.As(err, &protocolErr))

	// No channel traffic at all: the failure happens before the first read.
	assert.Zero(t, channel.reads)
	assert.Empty(t, channel.writes)
}

func TestHandshakePingAnsweredNotCounted(t *testing.T) {
	ping := &models.MFrame{Kind: models.FramePing, Data: []byte("keepalive")}
	channel := &scriptedChannel{frames: []*models.MFrame{
		ping,
		text(connectedFrame),
		text(authSuccessFrame),
		text(successFrame),
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.NoError(t, err)

	require.Len(t, channel.pongs, 1)
	assert.Equal(t, "keepalive", string(channel.pongs[0]))
}

func TestHandshakeConnectionExhaustedMidway(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		text(authSuccessFrame),
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.Error(t, err)

	var transportErr *protocol.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "connection closed unexpectedly", transportErr.Reason)
}

func TestHandshakeCloseFrameMidway(t *testing.T) {
	channel := &scriptedChannel{frames: []*models.MFrame{
		text(connectedFrame),
		{Kind: models.FrameClose},
	}}

	err := run(t, channel, []models.MSubscription{models.NewSubscription(models.KindTrade, "MSFT")})
	require.Error(t, err)

	var transportErr *protocol.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "connection closed unexpectedly", transportErr.Reason)
}
