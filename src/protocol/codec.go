package protocol

import (
	"encoding/json"
	"fmt"

	"polygon-ingestor/src/models"
)

// -----------------------------------------------------------------------------
// Wire codec for the feed protocol. One inbound frame is always a JSON array
// of tagged objects (the service batches several logical messages per frame
// and wraps even a single message in an array). Outbound handshake requests
// are single JSON objects.
// -----------------------------------------------------------------------------

// Tag values carried in the "ev" field of every inbound message.
const (
	tagStatus          = "status"
	tagTrade           = "T"
	tagQuote           = "Q"
	tagSecondAggregate = "A"
	tagMinuteAggregate = "AM"
)

// -----------------------------------------------------------------------------

// request is an outbound handshake request. Field order matters: the wire
// format is {"action":...,"params":...}.
type request struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// -----------------------------------------------------------------------------

// EncodeAuthRequest builds the authenticate request carrying the caller's
// credential.
func EncodeAuthRequest(apiKey string) ([]byte, error) {
	data, err := json.Marshal(request{Action: "auth", Params: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth request: %w", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// EncodeSubscribeRequest builds the subscribe request for an already
// comma-joined parameter string (see models.JoinSubscriptionParams).
func EncodeSubscribeRequest(params string) ([]byte, error) {
	data, err := json.Marshal(request{Action: "subscribe", Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscribe request: %w", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// DecodeBatch decodes one frame payload into its ordered batch of protocol
// messages. Unknown "ev" tags are skipped: the service adds message kinds
// over time and a client must not break on them. Unknown fields inside known
// messages are ignored by the JSON decoder. A payload that is not a valid
// batch, or a known message that does not parse, yields a DecodeError.
func DecodeBatch(data []byte) ([]models.MProtocolMessage, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &DecodeError{Err: err}
	}

	batch := make([]models.MProtocolMessage, 0, len(entries))
	for _, entry := range entries {
		var tag struct {
			Ev string `json:"ev"`
		}
		if err := json.Unmarshal(entry, &tag); err != nil {
			return nil, &DecodeError{Err: err}
		}

		switch tag.Ev {
		case tagStatus:
			var status models.MStatus
			if err := json.Unmarshal(entry, &status); err != nil {
				return nil, &DecodeError{Err: err}
			}
			batch = append(batch, models.MProtocolMessage{Status: &status})

		case tagTrade:
			var trade models.MTrade
			if err := json.Unmarshal(entry, &trade); err != nil {
				return nil, &DecodeError{Err: err}
			}
			batch = append(batch, models.MProtocolMessage{
				Event: &models.MEvent{Kind: models.KindTrade, Trade: &trade},
			})

		case tagQuote:
			var quote models.MQuote
			if err := json.Unmarshal(entry, &quote); err != nil {
				return nil, &DecodeError{Err: err}
			}
			batch = append(batch, models.MProtocolMessage{
				Event: &models.MEvent{Kind: models.KindQuote, Quote: &quote},
			})

		case tagSecondAggregate:
			var aggregate models.MAggregate
			if err := json.Unmarshal(entry, &aggregate); err != nil {
				return nil, &DecodeError{Err: err}
			}
			batch = append(batch, models.MProtocolMessage{
				Event: &models.MEvent{Kind: models.KindSecondAggregate, Aggregate: &aggregate},
			})

		case tagMinuteAggregate:
			var aggregate models.MAggregate
			if err := json.Unmarshal(entry, &aggregate); err != nil {
				return nil, &DecodeError{Err: err}
			}
			batch = append(batch, models.MProtocolMessage{
				Event: &models.MEvent{Kind: models.KindMinuteAggregate, Aggregate: &aggregate},
			})

		default:
			// Unknown message kind, skip.
		}
	}

	return batch, nil
}
