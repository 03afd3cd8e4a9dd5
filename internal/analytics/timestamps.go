package analytics

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"
)

// The finance team closes the books at 4:30 PM Pacific; revenue occurring
// after the cutoff counts toward the next financial day.
const (
	cutoffHour   = 16
	cutoffMinute = 30
)

var (
	pacificOnce sync.Once
	pacific     *time.Location
)

func pacificZone() *time.Location {
	pacificOnce.Do(func() {
		loc, err := time.LoadLocation("America/Los_Angeles")
		if err != nil {
			// Containers without tzdata fall back to standard PST.
			loc = time.FixedZone("PST", -8*60*60)
		}
		pacific = loc
	})
	return pacific
}

// FinancialDay buckets a timestamp into the reporting day it belongs to.
func FinancialDay(t time.Time) civil.Date {
	local := t.In(pacificZone())
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), cutoffHour, cutoffMinute, 0, 0, pacificZone())
	if !local.Before(cutoff) {
		local = local.AddDate(0, 0, 1)
	}
	return civil.DateOf(local)
}

// RevenueTimestamp selects the proper timestamp for revenue rows. Order of
// preference is the event's occurredAt, then the fallback.
func RevenueTimestamp(occurredAt *time.Time, fallback time.Time) time.Time {
	if occurredAt != nil && !occurredAt.IsZero() {
		return occurredAt.UTC()
	}
	return fallback.UTC()
}
