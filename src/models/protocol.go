package models

// -----------------------------------------------------------------------------

// MStatusCode enumerates the status codes the service reports on its control
// messages. Values are the wire representations.
type MStatusCode string

const (
	StatusConnected    MStatusCode = "connected"
	StatusDisconnected MStatusCode = "disconnected"
	StatusAuthSuccess  MStatusCode = "auth_success"
	StatusAuthFailure  MStatusCode = "auth_failed"
	StatusSuccess      MStatusCode = "success"
)

// -----------------------------------------------------------------------------

// MStatus is a single control message: an acknowledgement or connection
// state change, with free-text detail from the service.
type MStatus struct {
	Code    MStatusCode `json:"status"`
	Message string      `json:"message"`
}

// -----------------------------------------------------------------------------

// MProtocolMessage is one decoded entry of a wire frame. The service mixes
// control messages (Status set) with data messages (Event set) freely on the
// same channel, so both live behind one type; exactly one of the two fields
// is non-nil.
type MProtocolMessage struct {
	Status *MStatus
	Event  *MEvent
}

// -----------------------------------------------------------------------------

// IsStatus reports whether the message is a control message.
func (m *MProtocolMessage) IsStatus() bool {
	return m.Status != nil
}
