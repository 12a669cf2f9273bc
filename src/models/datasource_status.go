package models

// -----------------------------------------------------------------------------

// MDataSourceStatus represents the runtime status and technical metadata of
// one streaming session. It aggregates information from the stream reader
// and the underlying connection channel.

type MDataSourceStatus struct {
	SourceName    string   // The name of the data source
	Running       bool     // Whether the session is currently streaming
	TransportType string   // e.g., "websocket"
	Endpoint      string   // Stream endpoint (credentials masked)
	Subscriptions []string // Subscription parameters, e.g. "T.MSFT"
	EventCount    uint64   // Events delivered since the session started
	LastError     string   // Terminal error of the last session, if any
}
