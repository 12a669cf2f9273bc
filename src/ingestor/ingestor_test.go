package ingestor

import (
	"context"
	"io"
	"sync"
	"testing"

	"polygon-ingestor/src/config"
	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Test doubles
// -----------------------------------------------------------------------------

// countingPublisher records delivered events in place of a NATS connection.
type countingPublisher struct {
	mu        sync.Mutex
	events    int
	connected bool
}

func (p *countingPublisher) OnEvent(event *models.MEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events++
}

func (p *countingPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *countingPublisher) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *countingPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *countingPublisher) eventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events
}

// -----------------------------------------------------------------------------

// scriptedChannel replays a fixed frame sequence, honouring the session
// context like the real transport; after the script it reports io.EOF.
type scriptedChannel struct {
	frames []*models.MFrame
	next   int
	closed bool
}

func text(payload string) *models.MFrame {
	return &models.MFrame{Kind: models.FrameText, Data: []byte(payload)}
}

func (c *scriptedChannel) Connect(ctx context.Context) error { return nil }

func (c *scriptedChannel) ReadFrame(ctx context.Context) (*models.MFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.next >= len(c.frames) {
		return nil, io.EOF
	}
	frame := c.frames[c.next]
	c.next++
	return frame, nil
}

func (c *scriptedChannel) WriteText(data []byte) error { return nil }
func (c *scriptedChannel) WritePong(data []byte) error { return nil }

func (c *scriptedChannel) Close() error {
	c.closed = true
	return nil
}

func (c *scriptedChannel) IsRunning() bool { return !c.closed }
func (c *scriptedChannel) GetName() string { return "scripted" }
func (c *scriptedChannel) GetType() string { return "scripted" }

// -----------------------------------------------------------------------------

func sessionFrames() []*models.MFrame {
	return []*models.MFrame{
		text(`[{"ev":"status","status":"connected","message":"Connected Successfully"}]`),
		text(`[{"ev":"status","status":"auth_success","message":"authenticated"}]`),
		text(`[{"ev":"status","status":"success","message":"subscribed to: T.MSFT"}]`),
		text(`[{"ev":"T","sym":"MSFT","x":4,"p":114.125,"s":100,"t":1536036818784}]`),
	}
}

func testConfig() *config.Config {
	return &config.Config{MConfig: &models.MConfig{
		Name:      "test",
		GRPC_Port: 50051,
		Feed: models.MFeedConfig{
			Name:          "polygon",
			APIKey:        "USER12345678",
			StreamURL:     "wss://socket.polygon.io/stocks",
			APIURL:        "https://api.polygon.io",
			Subscriptions: []string{"T.MSFT"},
		},
		NATS: models.MNATSConfig{Servers: []string{"nats://localhost:4222"}},
	}}
}

func newTestIngestor(t *testing.T) (*Ingestor, *countingPublisher) {
	t.Helper()
	mdi := NewIngestor(testConfig(), logger.NewLogger("test"))
	publisher := &countingPublisher{}
	mdi.Publisher = publisher
	mdi.newChannel = func(endpoint string, log *logger.Logger, name string) interfaces.IStreamChannel {
		return &scriptedChannel{frames: sessionFrames()}
	}
	return mdi, publisher
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestStartStopStart(t *testing.T) {
	mdi, publisher := newTestIngestor(t)

	// Each start/stop cycle must run a complete fresh session; a stopped
	// ingestor is restartable.
	for i := 0; i < 2; i++ {
		require.NoError(t, mdi.Start(), "cycle %d", i)
		require.NoError(t, mdi.Stop(), "cycle %d", i)
		assert.False(t, mdi.IsRunning())
	}

	// One trade per session reached the publisher.
	assert.Equal(t, 2, publisher.eventCount())
}

func TestStartWhileRunningFails(t *testing.T) {
	mdi, _ := newTestIngestor(t)

	// An endless script keeps the session alive across the second Start.
	mdi.newChannel = func(endpoint string, log *logger.Logger, name string) interfaces.IStreamChannel {
		return &blockingChannel{scriptedChannel{frames: sessionFrames()[:3]}}
	}

	require.NoError(t, mdi.Start())
	assert.Error(t, mdi.Start())
	require.NoError(t, mdi.Stop())
}

// blockingChannel behaves like scriptedChannel but blocks on exhaustion
// instead of reporting io.EOF, like an idle live connection.
type blockingChannel struct {
	scriptedChannel
}

func (c *blockingChannel) ReadFrame(ctx context.Context) (*models.MFrame, error) {
	if c.next < len(c.frames) {
		return c.scriptedChannel.ReadFrame(ctx)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStatusAfterSession(t *testing.T) {
	mdi, _ := newTestIngestor(t)

	require.NoError(t, mdi.Start())
	require.NoError(t, mdi.Stop())

	status := mdi.GetStatus()
	assert.False(t, status.Running)
	assert.Equal(t, []string{"T.MSFT"}, status.Subscriptions)
	assert.Equal(t, uint64(1), status.EventCount)
	assert.Empty(t, status.LastError)
}
