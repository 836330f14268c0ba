// Package usage contains the pure usage-metering core: period key
// derivation, counter units, and the limit policy. Nothing in this package
// touches storage or the clock; callers pass time in explicitly.
package usage

import "time"

// PeriodKey returns the monthly bucket identifier for a point in time,
// formatted as "YYYY-MM". Periods are derived in UTC so two servers in
// different timezones always agree on the bucket.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// PeriodBefore returns the period key n months before the given time.
// Used by the retention sweep to compute the cutoff period.
func PeriodBefore(t time.Time, n int) string {
	return PeriodKey(t.UTC().AddDate(0, -n, 0))
}
