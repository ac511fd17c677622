package domain

import (
	"fmt"
	"math"
)

// Money is an amount in euro cents.
type Money int64

// MaxAmount bounds any single amount and any cumulative total the engine
// records: 10,000,000,000.00 EUR.
const MaxAmount Money = 1_000_000_000_000

// MoneyFromFloat converts a decimal euro amount to cents, rounding half away from zero.
func MoneyFromFloat(euros float64) Money {
	return Money(math.Round(euros * 100))
}

// Float returns the amount in euros.
func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// QuoteTotal computes volume × unit rate in cents. ok is false when the
// product is not finite or exceeds MaxAmount.
func QuoteTotal(volume float64, unitRate Money) (total Money, ok bool) {
	raw := math.Round(volume * float64(unitRate))
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw > float64(MaxAmount) || raw < 0 {
		return 0, false
	}
	return Money(raw), true
}

// AddPayment returns paid + amount, or ok=false when the sum would pass MaxAmount.
func AddPayment(paid, amount Money) (sum Money, ok bool) {
	if amount < 0 || paid > MaxAmount-amount {
		return paid, false
	}
	return paid + amount, true
}

// MeetsThreshold reports whether paid covers at least percent of total.
// The comparison is done on integers so 30% of 900.00 is exactly 270.00.
func MeetsThreshold(paid, total Money, percent int) bool {
	if total <= 0 {
		return false
	}
	return paid >= ThresholdAmount(total, percent)
}

// ThresholdAmount is the minimum cumulative payment for enrollment, rounded
// up to the cent. percent is expected in [0,100]; the split into whole
// hundreds and remainder keeps the product inside int64 for any total.
func ThresholdAmount(total Money, percent int) Money {
	t, p := int64(total), int64(percent)
	return Money(t/100*p + (t%100*p+99)/100)
}
