package models

// -----------------------------------------------------------------------------

// MTrade is a single trade execution from the feed. Timestamps are epoch
// milliseconds local to the exchange timezone (US Eastern).
type MTrade struct {
	Symbol      string  `json:"sym"`
	Exchange    uint64  `json:"x"`
	Price       float64 `json:"p"`
	Quantity    uint64  `json:"s"`
	TimestampMS int64   `json:"t"`
}

// -----------------------------------------------------------------------------

// MQuote is a best bid/ask update for a symbol.
type MQuote struct {
	Symbol      string  `json:"sym"`
	BidExchange uint64  `json:"bx"`
	BidPrice    float64 `json:"bp"`
	BidQuantity uint64  `json:"bs"`
	AskExchange uint64  `json:"ax"`
	AskPrice    float64 `json:"ap"`
	AskQuantity uint64  `json:"as"`
	TimestampMS int64   `json:"t"`
}

// -----------------------------------------------------------------------------

// MAggregate is a second or minute OHLCV bar for a symbol.
type MAggregate struct {
	Symbol            string  `json:"sym"`
	Volume            uint64  `json:"v"`
	VolumeWeightedAvg float64 `json:"vw"`
	OpenPrice         float64 `json:"o"`
	ClosePrice        float64 `json:"c"`
	HighPrice         float64 `json:"h"`
	LowPrice          float64 `json:"l"`
	StartTimestampMS  int64   `json:"s"`
	EndTimestampMS    int64   `json:"e"`
}

// -----------------------------------------------------------------------------

// MEventKind identifies the caller-visible event variants. Values match the
// wire tag so that subscriptions, events and NATS subjects stay aligned.
type MEventKind = MSubscriptionKind

// -----------------------------------------------------------------------------

// MEvent is the caller-visible projection of a data message: exactly one of
// the payload pointers is set, selected by Kind. Status messages never
// appear as events.
type MEvent struct {
	Kind      MEventKind
	Trade     *MTrade
	Quote     *MQuote
	Aggregate *MAggregate
}

// -----------------------------------------------------------------------------

// Symbol returns the symbol the event refers to.
func (e *MEvent) Symbol() string {
	switch e.Kind {
	case KindTrade:
		return e.Trade.Symbol
	case KindQuote:
		return e.Quote.Symbol
	case KindSecondAggregate, KindMinuteAggregate:
		return e.Aggregate.Symbol
	}
	return ""
}
