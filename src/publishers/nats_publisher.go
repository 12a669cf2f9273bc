package publishers

import (
	"fmt"
	"sync"
	"time"

	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"
	"polygon-ingestor/src/models"

	"github.com/nats-io/nats.go"
)

// -----------------------------------------------------------------------------
// NATSPublisher implements interfaces.IPublisher and republishes decoded
// market events on per-kind, per-symbol subjects.
// -----------------------------------------------------------------------------

type NATSPublisher struct {
	name   string
	config *models.MNATSConfig
	logger *logger.Logger

	useJetStream bool

	mu sync.RWMutex

	nc         *nats.Conn             // NATS core connection
	js         nats.JetStreamContext  // JetStream context (if enabled)
	serializer interfaces.ISerializer // serialize event payload before sending

	connected bool
}

// -----------------------------------------------------------------------------

// NewNATSPublisher creates a new NATS publisher instance
func NewNATSPublisher(config *models.MNATSConfig, logger *logger.Logger, serializer interfaces.ISerializer) interfaces.IPublisher {
	return &NATSPublisher{
		name:       config.ClientID,
		config:     config,
		logger:     logger,
		serializer: serializer,
	}
}

// -----------------------------------------------------------------------------

// OnEvent is the central callback where every streamed market event lands.
func (np *NATSPublisher) OnEvent(event *models.MEvent) {
	subject := fmt.Sprintf("marketdata.%s.%s", subjectKind(event.Kind), event.Symbol())

	payload, err := np.serializer.Marshal(eventPayload(event))
	if err != nil {
		np.logger.Error("%s : failed to serialize event for subject %s: %v", np.name, subject, err)
		return
	}

	if np.useJetStream {
		err = np.PublishJetStream(subject, payload)
	} else {
		err = np.Publish(subject, payload)
	}

	if err != nil {
		np.logger.Error("%s : failed to publish %s event for %s to subject %s: %v",
			np.name, event.Kind, event.Symbol(), subject, err)
	}
}

// -----------------------------------------------------------------------------

// Publish sends raw data to a NATS core subject (fire-and-forget).
func (np *NATSPublisher) Publish(subject string, data []byte) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	return np.nc.Publish(np.getSubject(subject), data)
}

// -----------------------------------------------------------------------------

// PublishJetStream sends raw data using JetStream with delivery acknowledgement.
func (np *NATSPublisher) PublishJetStream(subject string, data []byte) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	if np.js == nil {
		return fmt.Errorf("jetstream is not initialized or enabled")
	}

	fullSubject := np.getSubject(subject)
	if _, err := np.js.Publish(fullSubject, data); err != nil {
		np.logger.Error("%s : jetstream publish failed for %s: %v", np.name, fullSubject, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Connect establishes connection to NATS server and sets up JetStream context if configured.
func (np *NATSPublisher) Connect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc != nil && np.nc.IsConnected() {
		return nil
	}

	opts := []nats.Option{
		nats.Name(np.config.ClientID),
		nats.Timeout(np.config.ConnectTimeout),
		nats.ReconnectWait(np.config.ReconnectWait),
		nats.MaxReconnects(np.config.MaxReconnects),
		nats.FlusherTimeout(np.config.FlushTimeout),

		// Connection Event Handlers
		nats.RetryOnFailedConnect(true),
		nats.ClosedHandler(func(nc *nats.Conn) {
			np.logger.Error("%s : NATS connection closed unexpectedly", np.name)
			np.setConnected(false)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			np.logger.Warning("%s : NATS disconnected, attempting reconnect: %v", np.name, err)
			np.setConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			np.logger.Info("%s : NATS successfully reconnected to %s", np.name, nc.ConnectedUrl())
			np.setConnected(true)
		}),
	}

	var err error
	np.nc, err = nats.Connect(np.config.Servers[0], opts...)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}

	np.connected = true // mu already held
	np.logger.Info("%s : successfully connected to NATS at %s", np.name, np.nc.ConnectedUrl())

	if np.config.JetStream != nil && np.config.JetStream.Enabled {
		np.useJetStream = true

		np.js, err = np.nc.JetStream()
		if err != nil {
			np.logger.Error("%s : failed to create JetStream context: %v", np.name, err)
			return fmt.Errorf("jetstream context creation failed: %w", err)
		}
		np.logger.Info("%s : publisher using NATS JetStream for persistent publishing", np.name)

		if err := np.ensureStreamExists(); err != nil {
			np.logger.Warning("%s : failed to ensure stream exists: %v (continuing anyway)", np.name, err)
		}
	} else {
		np.useJetStream = false
		np.logger.Warning("%s : publisher using NATS Core (fire-and-forget), JetStream is disabled in config", np.name)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ensureStreamExists creates the JetStream stream if it is missing.
func (np *NATSPublisher) ensureStreamExists() error {
	if np.js == nil || np.config.JetStream == nil {
		return fmt.Errorf("jetstream not initialized")
	}

	streamName := np.config.JetStream.StreamName
	if streamName == "" {
		return fmt.Errorf("stream name not configured")
	}

	stream, err := np.js.StreamInfo(streamName)
	if err == nil {
		np.logger.Info("%s : JetStream stream '%s' already exists with %d subjects",
			np.name, streamName, len(stream.Config.Subjects))
		return nil
	}

	np.logger.Info("%s : creating JetStream stream '%s'", np.name, streamName)

	maxAge := np.config.JetStream.MaxAge
	if maxAge == 0 {
		maxAge = 72 * time.Hour
	}

	streamConfig := &nats.StreamConfig{
		Name:       streamName,
		Subjects:   np.config.JetStream.Subjects,
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		Replicas:   np.config.JetStream.Replicas,
		MaxAge:     maxAge,
		MaxMsgs:    np.config.JetStream.MaxMsgs,
		MaxBytes:   np.config.JetStream.MaxBytes,
		MaxMsgSize: int32(np.config.JetStream.MaxMsgSize),
		Discard:    nats.DiscardOld,
	}

	if _, err := np.js.AddStream(streamConfig); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", streamName, err)
	}

	np.logger.Info("%s : successfully created JetStream stream '%s' with subjects: %v",
		np.name, streamName, np.config.JetStream.Subjects)
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the NATS connection
func (np *NATSPublisher) Disconnect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc == nil || np.nc.IsClosed() {
		return nil
	}

	np.nc.Close()
	np.connected = false // mu already held
	np.logger.Info("%s : NATS connection closed successfully", np.name)
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected returns connection status
func (np *NATSPublisher) IsConnected() bool {
	np.mu.RLock()
	defer np.mu.RUnlock()
	return np.connected
}

// -----------------------------------------------------------------------------

// Flush waits for all published messages to be acknowledged by the server (for core NATS).
func (np *NATSPublisher) Flush() error {
	if !np.IsConnected() {
		return fmt.Errorf("cannot flush: nats client not connected")
	}
	return np.nc.Flush()
}

// -----------------------------------------------------------------------------

// setConnected updates the connection status. Called from NATS event
// handlers running on their own goroutines, so it takes the lock itself.
func (np *NATSPublisher) setConnected(status bool) {
	np.mu.Lock()
	defer np.mu.Unlock()
	np.connected = status
}

// -----------------------------------------------------------------------------

// getSubject prepends the configured subject prefix if it exists.
func (np *NATSPublisher) getSubject(subject string) string {
	if np.config.SubjectPrefix != "" {
		return fmt.Sprintf("%s.%s", np.config.SubjectPrefix, subject)
	}
	return subject
}

// -----------------------------------------------------------------------------

// subjectKind maps an event kind to its subject segment.
func subjectKind(kind models.MEventKind) string {
	switch kind {
	case models.KindTrade:
		return "trade"
	case models.KindQuote:
		return "quote"
	case models.KindSecondAggregate:
		return "agg_second"
	case models.KindMinuteAggregate:
		return "agg_minute"
	}
	return "unknown"
}

// -----------------------------------------------------------------------------

// eventPayload returns the concrete payload struct behind an event.
func eventPayload(event *models.MEvent) interface{} {
	switch event.Kind {
	case models.KindTrade:
		return event.Trade
	case models.KindQuote:
		return event.Quote
	default:
		return event.Aggregate
	}
}
