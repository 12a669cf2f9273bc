package interfaces

import "polygon-ingestor/src/models"

// -----------------------------------------------------------------------------

// IPublisher defines the interface for distributing decoded market events
type IPublisher interface {
	// OnEvent processes and publishes one market event
	OnEvent(event *models.MEvent)

	// Connect establishes connection to the message broker
	Connect() error

	// Disconnect closes the connection to the message broker
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
