package utils

import (
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Timestamp helpers. The feed reports all timestamps as epoch milliseconds
// local to the US Eastern exchange timezone; these conversions are kept out
// of the streaming control flow so that models stay plain wire structs.
// -----------------------------------------------------------------------------

var (
	easternOnce sync.Once
	easternLoc  *time.Location
)

// -----------------------------------------------------------------------------

// Eastern returns the America/New_York location. If tzdata is unavailable a
// fixed EST offset is used so conversions never fail at call sites.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		easternLoc = loc
	})
	return easternLoc
}

// -----------------------------------------------------------------------------

// TimeFromMillis converts an epoch-millisecond feed timestamp into a
// time.Time in the exchange timezone.
func TimeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(Eastern())
}

// -----------------------------------------------------------------------------

// MillisFromTime converts a time.Time back to the feed's epoch-millisecond
// representation.
func MillisFromTime(t time.Time) int64 {
	return t.UnixMilli()
}

// -----------------------------------------------------------------------------

// FormatDate renders a time as the YYYY-MM-DD form used in REST range paths,
// evaluated in the exchange timezone.
func FormatDate(t time.Time) string {
	return t.In(Eastern()).Format("2006-01-02")
}
