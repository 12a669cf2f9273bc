package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// MarketCalendar answers trading-day and market-hours questions for the US
// equity session the feed covers, using scmhub/calendar (MIC "xnys") with a
// simple Mon-Fri 09:30-16:00 Eastern fallback when the calendar is missing.
type MarketCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// NewMarketCalendar loads the NYSE calendar.
func NewMarketCalendar() *MarketCalendar {
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		return &MarketCalendar{Fallback: true, Timezone: Eastern()}
	}
	return &MarketCalendar{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the exchange trades on the given date.
func (mc *MarketCalendar) IsTradingDay(date time.Time) bool {
	if mc.Timezone != nil {
		date = date.In(mc.Timezone)
	}

	if mc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return mc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenAt reports whether the regular session is open at the given instant.
func (mc *MarketCalendar) IsOpenAt(t time.Time) bool {
	if mc.Timezone != nil {
		t = t.In(mc.Timezone)
	}

	if mc.Fallback {
		if !mc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}
	return mc.Calendar.IsOpen(t)
}
