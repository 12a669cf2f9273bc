package ingestor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"polygon-ingestor/src/config"
	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"
	"polygon-ingestor/src/publishers"
	"polygon-ingestor/src/serializers"
	"polygon-ingestor/src/stream"
	"polygon-ingestor/src/transports"
	"polygon-ingestor/src/utils"
)

// -----------------------------------------------------------------------------
// Core Application Struct
// -----------------------------------------------------------------------------

// Ingestor owns one streaming session against the market-data feed: it
// connects the publisher, opens the event stream (handshake included),
// consumes events until the stream terminates and forwards each one to the
// publisher. A terminated session is not restarted automatically; Start must
// be called again for a fresh connection and handshake.
type Ingestor struct {
	Name      string
	Config    *config.Config
	Logger    *logger.Logger
	Publisher interfaces.IPublisher
	Calendar  *utils.MarketCalendar

	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// newChannel builds the transport for one session.
	newChannel func(endpoint string, log *logger.Logger, name string) interfaces.IStreamChannel

	channel       interfaces.IStreamChannel
	subscriptions []models.MSubscription
	running       bool
	eventCount    atomic.Uint64
	lastError     string
}

// -----------------------------------------------------------------------------

// NewIngestor creates a new Ingestor instance
func NewIngestor(config *config.Config, log *logger.Logger) *Ingestor {
	// The publisher payload format is pluggable; default is JSON.
	serializer := selectSerializer(config.Feed.Serializer)
	publisher := publishers.NewNATSPublisher(&config.NATS, log, serializer)

	return &Ingestor{
		Name:      "MarketDataIngestor",
		Config:    config,
		Logger:    log,
		Publisher: publisher,
		Calendar:  utils.NewMarketCalendar(),
		newChannel: func(endpoint string, log *logger.Logger, name string) interfaces.IStreamChannel {
			return transports.NewWebSocketChannel(endpoint, log, name)
		},
	}
}

// -----------------------------------------------------------------------------
// Public Lifecycle Methods
// -----------------------------------------------------------------------------

// GetName returns the ingestor name
func (mdi *Ingestor) GetName() string {
	return mdi.Name
}

// -----------------------------------------------------------------------------

// Start connects the publisher, performs the stream handshake and begins
// consuming events.
func (mdi *Ingestor) Start() error {
	mdi.mu.Lock()
	defer mdi.mu.Unlock()

	if mdi.running {
		return fmt.Errorf("ingestor is already running")
	}

	mdi.Logger.Info("%s : starting market data ingestor", mdi.Name)

	// 1. Connect to publisher first - fail fast if publisher unavailable
	if err := mdi.Publisher.Connect(); err != nil {
		return fmt.Errorf("failed to connect to publisher: %w", err)
	}
	mdi.Logger.Info("%s : publisher connected successfully", mdi.Name)

	// 2. Resolve the configured subscriptions
	subscriptions, err := mdi.Config.Subscriptions()
	if err != nil {
		return fmt.Errorf("failed to resolve subscriptions: %w", err)
	}
	mdi.subscriptions = subscriptions

	if !mdi.Calendar.IsOpenAt(time.Now()) {
		mdi.Logger.Warning("%s : market is currently closed, expect little or no data", mdi.Name)
	}

	// 3. Open the stream: dial, handshake, ready to pull events. Each
	// session gets a fresh context so a stopped ingestor can start again.
	mdi.ctx, mdi.cancel = context.WithCancel(context.Background())

	feedName := mdi.Config.Feed.Name
	if feedName == "" {
		feedName = "polygon"
	}
	channel := mdi.newChannel(mdi.Config.Feed.StreamURL, mdi.Logger, feedName)

	reader, err := stream.Open(mdi.ctx, channel, mdi.Logger, mdi.Config.Feed.APIKey, subscriptions)
	if err != nil {
		mdi.cancel()
		mdi.Publisher.Disconnect()
		return fmt.Errorf("failed to open event stream: %w", err)
	}

	mdi.channel = channel
	mdi.running = true
	mdi.eventCount.Store(0)
	mdi.lastError = ""

	mdi.wg.Add(1)
	go mdi.consumeLoop(mdi.ctx, reader)

	mdi.Logger.Info("%s : ingestor started successfully, streaming %d subscriptions", mdi.Name, len(subscriptions))
	return nil
}

// -----------------------------------------------------------------------------

// Stop gracefully shuts down the session and the publisher.
func (mdi *Ingestor) Stop() error {
	mdi.mu.Lock()
	channel, cancel := mdi.channel, mdi.cancel
	mdi.mu.Unlock()

	mdi.Logger.Info("%s : stopping ingestor", mdi.Name)

	// The reader is owned by the consume loop; shutting the channel down
	// unblocks it and lets the loop wind the reader down itself.
	if cancel != nil {
		cancel()
	}
	if channel != nil {
		channel.Close()
	}
	mdi.wg.Wait()

	if err := mdi.Publisher.Disconnect(); err != nil {
		mdi.Logger.Error("%s : failed to disconnect publisher: %v", mdi.Name, err)
	}

	mdi.mu.Lock()
	mdi.running = false
	mdi.mu.Unlock()

	mdi.Logger.Info("%s : ingestor stopped", mdi.Name)
	return nil
}

// -----------------------------------------------------------------------------
// Status Methods
// -----------------------------------------------------------------------------

// IsRunning reports whether the session is currently streaming.
func (mdi *Ingestor) IsRunning() bool {
	mdi.mu.RLock()
	defer mdi.mu.RUnlock()
	return mdi.running
}

// -----------------------------------------------------------------------------

// GetStatus returns the current status of the streaming session.
func (mdi *Ingestor) GetStatus() *models.MDataSourceStatus {
	mdi.mu.RLock()
	defer mdi.mu.RUnlock()

	params := make([]string, 0, len(mdi.subscriptions))
	for _, sub := range mdi.subscriptions {
		params = append(params, sub.Param())
	}

	status := &models.MDataSourceStatus{
		SourceName:    mdi.Name,
		Running:       mdi.running,
		TransportType: "websocket",
		Endpoint:      utils.MaskAPIKey(mdi.Config.Feed.StreamURL),
		Subscriptions: params,
		EventCount:    mdi.eventCount.Load(),
		LastError:     mdi.lastError,
	}
	if mdi.channel != nil {
		status.TransportType = mdi.channel.GetType()
	}
	return status
}

// -----------------------------------------------------------------------------
// Private/Helper Methods
// -----------------------------------------------------------------------------

// consumeLoop pulls events until the sequence terminates and forwards each
// one to the publisher. A terminal error is recorded in the status; no
// reconnect is attempted.
func (mdi *Ingestor) consumeLoop(ctx context.Context, reader *stream.Reader) {
	defer mdi.wg.Done()

	for {
		event, err := reader.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				mdi.Logger.Info("%s : event stream ended", mdi.Name)
			case errors.Is(err, context.Canceled):
				mdi.Logger.Info("%s : event stream cancelled", mdi.Name)
			default:
				mdi.Logger.Error("%s : event stream failed: %v", mdi.Name, err)
				mdi.mu.Lock()
				mdi.lastError = err.Error()
				mdi.mu.Unlock()
			}

			mdi.mu.Lock()
			mdi.running = false
			mdi.mu.Unlock()
			return
		}

		mdi.eventCount.Add(1)
		mdi.Publisher.OnEvent(event)
	}
}

// -----------------------------------------------------------------------------

// selectSerializer maps the configured payload format to a serializer.
func selectSerializer(name string) interfaces.ISerializer {
	switch name {
	case "gob":
		return serializers.NewBinSerializer()
	case "proto":
		return serializers.NewProtoSerializer()
	default:
		return serializers.NewJSONSerializer()
	}
}
