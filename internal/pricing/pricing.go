// Package pricing computes the charge for a one-hour slot and reconstructs
// the breakdown for receipts.
package pricing

import "math"

// DefaultServiceFeeRate is the fixed service-fee surcharge applied on top
// of a venue's base hourly price.
const DefaultServiceFeeRate = 0.10

// Quote is the cost of one hour at a venue's current rate.
type Quote struct {
	BaseFee    float64 `json:"base_fee"`
	ServiceFee float64 `json:"service_fee"`
	Total      float64 `json:"total"`
}

// Calculator prices a single slot with a fixed-percentage service fee.
type Calculator struct {
	rate float64
}

// NewCalculator creates a calculator with the given service-fee rate.
// Rates outside (0, 1] fall back to the default.
func NewCalculator(rate float64) *Calculator {
	if rate <= 0 || rate > 1 {
		rate = DefaultServiceFeeRate
	}
	return &Calculator{rate: rate}
}

// Rate returns the service-fee rate.
func (c *Calculator) Rate() float64 {
	return c.rate
}

// QuoteFor computes the charge for one hour at base price. Each quantity is
// rounded once, at the end; the total is built from the rounded fee so the
// displayed lines always add up.
func (c *Calculator) QuoteFor(basePrice float64) Quote {
	if basePrice <= 0 {
		return Quote{}
	}
	serviceFee := Round2(basePrice * c.rate)
	return Quote{
		BaseFee:    Round2(basePrice),
		ServiceFee: serviceFee,
		Total:      Round2(basePrice + serviceFee),
	}
}

// Breakdown inverts the pricing formula for a stored total. Because the
// forward computation rounds an intermediate, the reconstructed base fee may
// be off by at most one cent; the total itself is preserved exactly. Callers
// must not "repair" the difference with the venue's live rate.
func (c *Calculator) Breakdown(total float64) Quote {
	if total <= 0 {
		return Quote{}
	}
	baseFee := Round2(total / (1 + c.rate))
	return Quote{
		BaseFee:    baseFee,
		ServiceFee: Round2(total - baseFee),
		Total:      Round2(total),
	}
}

// Round2 rounds to two decimal places, half up. Prices are non-negative, so
// half-away-from-zero and half-up coincide. Decimal halves land just under
// the midpoint in binary (1.005*100 is 100.4999...), so a tiny epsilon nudges
// them over before flooring; it is far below the sub-cent noise that matters
// in this domain.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}
