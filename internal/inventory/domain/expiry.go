package domain

import (
	"math"
	"time"
)

// NearExpiryThresholdDays is the window within which a batch counts as near-expiry.
const NearExpiryThresholdDays = 7

// nearExpiryDiscounts is the fixed business table mapping whole days until
// expiry to an automatic discount percentage. Days at or below zero (expired
// or expiring today) get 50; days beyond the threshold get 0.
var nearExpiryDiscounts = map[int]int{
	1: 40,
	2: 30,
	3: 20,
	4: 15,
	5: 12,
	6: 10,
	7: 8,
}

// DaysToExpiry returns the number of whole days from today until the expiry
// date. Both dates are truncated to day granularity before subtracting, so the
// time of day never affects the result. Zero or negative means expired or
// expiring today.
func DaysToExpiry(today, expiry time.Time) int {
	t := truncateToDay(today)
	e := truncateToDay(expiry)
	return int(math.Ceil(e.Sub(t).Hours() / 24))
}

// IsExpired reports whether a batch with the given days-to-expiry is expired
func IsExpired(days int) bool {
	return days <= 0
}

// IsNearExpiry reports whether days-to-expiry falls inside the near-expiry window
func IsNearExpiry(days int) bool {
	return days > 0 && days <= NearExpiryThresholdDays
}

// NearExpiryDiscount returns the automatic discount percentage for the given
// days-to-expiry, per the fixed tier table.
func NearExpiryDiscount(days int) int {
	if days <= 0 {
		return 50
	}
	if discount, ok := nearExpiryDiscounts[days]; ok {
		return discount
	}
	return 0
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
