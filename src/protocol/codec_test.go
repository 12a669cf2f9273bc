package protocol

import (
	"errors"
	"testing"

	"polygon-ingestor/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAuthRequest(t *testing.T) {
	data, err := EncodeAuthRequest("USER12345678")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"auth","params":"USER12345678"}`, string(data))
}

func TestEncodeSubscribeRequest(t *testing.T) {
	data, err := EncodeSubscribeRequest("T.MSFT,Q.*")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"subscribe","params":"T.MSFT,Q.*"}`, string(data))
}

func TestDecodeStatusBatch(t *testing.T) {
	batch, err := DecodeBatch([]byte(`[{"ev":"status","status":"connected","message":"Connected Successfully"}]`))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.True(t, batch[0].IsStatus())
	assert.Equal(t, models.StatusConnected, batch[0].Status.Code)
	assert.Equal(t, "Connected Successfully", batch[0].Status.Message)
}

func TestDecodeTradeIgnoresUnknownFields(t *testing.T) {
	payload := `[{"ev":"T","sym":"MSFT","x":4,"i":"12345","z":3,"p":114.125,"s":100,"c":[0,12],"t":1536036818784}]`
	batch, err := DecodeBatch([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.False(t, batch[0].IsStatus())

	event := batch[0].Event
	require.Equal(t, models.KindTrade, event.Kind)
	require.NotNil(t, event.Trade)
	assert.Equal(t, "MSFT", event.Trade.Symbol)
	assert.Equal(t, uint64(4), event.Trade.Exchange)
	assert.Equal(t, 114.125, event.Trade.Price)
	assert.Equal(t, uint64(100), event.Trade.Quantity)
	assert.Equal(t, int64(1536036818784), event.Trade.TimestampMS)
}

func TestDecodeQuoteBatchPreservesOrder(t *testing.T) {
	payload := `[
		{"ev":"Q","sym":"UFO","bx":4,"bp":10.55,"bs":2,"ax":11,"ap":10.56,"as":3,"t":1536036818784},
		{"ev":"Q","sym":"UFO","bx":4,"bp":10.55,"bs":4,"ax":11,"ap":10.57,"as":11,"t":1536036818790}
	]`
	batch, err := DecodeBatch([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(3), batch[0].Event.Quote.AskQuantity)
	assert.Equal(t, uint64(11), batch[1].Event.Quote.AskQuantity)
}

func TestDecodeAggregates(t *testing.T) {
	payload := `[
		{"ev":"A","sym":"SPCE","v":200,"vw":25.37,"o":25.35,"c":25.39,"h":25.40,"l":25.35,"s":1610144868000,"e":1610144869000},
		{"ev":"AM","sym":"GTE","v":4110,"vw":0.4172,"o":0.4172,"c":0.4172,"h":0.4172,"l":0.4172,"s":1610144640000,"e":1610144700000}
	]`
	batch, err := DecodeBatch([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, models.KindSecondAggregate, batch[0].Event.Kind)
	assert.Equal(t, "SPCE", batch[0].Event.Aggregate.Symbol)
	assert.Equal(t, uint64(200), batch[0].Event.Aggregate.Volume)

	assert.Equal(t, models.KindMinuteAggregate, batch[1].Event.Kind)
	assert.Equal(t, "GTE", batch[1].Event.Aggregate.Symbol)
	assert.Equal(t, int64(1610144700000), batch[1].Event.Aggregate.EndTimestampMS)
}

func TestDecodeUnknownTagSkipped(t *testing.T) {
	payload := `[
		{"ev":"LULD","sym":"MSFT","t":1536036818784},
		{"ev":"T","sym":"MSFT","x":4,"p":114.125,"s":100,"t":1536036818784}
	]`
	batch, err := DecodeBatch([]byte(payload))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, models.KindTrade, batch[0].Event.Kind)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := DecodeBatch([]byte(`not json`))
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDecodeNonArrayPayload(t *testing.T) {
	_, err := DecodeBatch([]byte(`{"ev":"status","status":"connected","message":""}`))
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}
