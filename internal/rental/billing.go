package rental

import (
	"time"

	"github.com/shopspring/decimal"
)

// SecondsPerDay is the length of one billing day.
const SecondsPerDay = 86400

// ElapsedSeconds returns the whole seconds between checkout and checkin,
// never negative.
func ElapsedSeconds(checkout, checkin time.Time) int64 {
	secs := int64(checkin.Sub(checkout) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// BillingDays converts an elapsed duration into billed days. Partial days
// round up and the minimum is one day.
func BillingDays(seconds int64) int {
	if seconds <= SecondsPerDay {
		return 1
	}
	return int((seconds + SecondsPerDay - 1) / SecondsPerDay)
}

func Cost(days int, pricePerDay decimal.Decimal) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(int64(days)))
}
