package models

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------

// SymbolAll subscribes to every symbol the feed carries for a message kind.
const SymbolAll = "*"

// -----------------------------------------------------------------------------

// MSubscriptionKind identifies one of the feed's message kinds. The value is
// the wire code used inside subscription parameter strings.
type MSubscriptionKind string

const (
	KindTrade           MSubscriptionKind = "T"
	KindQuote           MSubscriptionKind = "Q"
	KindSecondAggregate MSubscriptionKind = "A"
	KindMinuteAggregate MSubscriptionKind = "AM"
)

// -----------------------------------------------------------------------------

// MSubscription identifies a message kind and a target symbol ("*" for all).
// Immutable value supplied by the caller.
type MSubscription struct {
	Kind   MSubscriptionKind
	Symbol string
}

// -----------------------------------------------------------------------------

// NewSubscription creates a subscription for a single symbol.
func NewSubscription(kind MSubscriptionKind, symbol string) MSubscription {
	return MSubscription{Kind: kind, Symbol: symbol}
}

// -----------------------------------------------------------------------------

// NewSubscriptionAll creates a subscription covering all symbols of a kind.
func NewSubscriptionAll(kind MSubscriptionKind) MSubscription {
	return MSubscription{Kind: kind, Symbol: SymbolAll}
}

// -----------------------------------------------------------------------------

// Param returns the compact request parameter for this subscription,
// e.g. "T.MSFT" or "Q.*".
func (s MSubscription) Param() string {
	return fmt.Sprintf("%s.%s", s.Kind, s.Symbol)
}

// -----------------------------------------------------------------------------

// JoinSubscriptionParams builds the single comma-joined parameter string for
// a subscribe request. The returned count is the number of subscriptions and
// therefore the number of confirmations the service is expected to send.
// An empty set is an error: there is nothing to subscribe to.
func JoinSubscriptionParams(subscriptions []MSubscription) (string, int, error) {
	if len(subscriptions) == 0 {
		return "", 0, fmt.Errorf("no subscriptions supplied")
	}

	params := make([]string, 0, len(subscriptions))
	for _, sub := range subscriptions {
		params = append(params, sub.Param())
	}
	return strings.Join(params, ","), len(subscriptions), nil
}

// -----------------------------------------------------------------------------

// ParseSubscription parses a "<kind>.<symbol>" string as found in config
// files back into an MSubscription.
func ParseSubscription(param string) (MSubscription, error) {
	idx := strings.Index(param, ".")
	if idx <= 0 || idx == len(param)-1 {
		return MSubscription{}, fmt.Errorf("invalid subscription parameter: %q", param)
	}

	kind := MSubscriptionKind(param[:idx])
	switch kind {
	case KindTrade, KindQuote, KindSecondAggregate, KindMinuteAggregate:
	default:
		return MSubscription{}, fmt.Errorf("unknown subscription kind in %q", param)
	}

	return MSubscription{Kind: kind, Symbol: param[idx+1:]}, nil
}
