package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 50.0, Round2(50.0))
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235000001))

	// Decimal halves sit just below the midpoint as binary floats; they must
	// still round up.
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.13, Round2(0.125))
}

func TestQuoteFor(t *testing.T) {
	calc := NewCalculator(0.10)

	t.Run("ReferenceRate", func(t *testing.T) {
		q := calc.QuoteFor(500)
		assert.Equal(t, 500.00, q.BaseFee)
		assert.Equal(t, 50.00, q.ServiceFee)
		assert.Equal(t, 550.00, q.Total)
	})

	t.Run("FreeVenue", func(t *testing.T) {
		q := calc.QuoteFor(0)
		assert.Equal(t, Quote{}, q)
	})

	t.Run("FractionalBase", func(t *testing.T) {
		q := calc.QuoteFor(333.33)
		assert.Equal(t, 33.33, q.ServiceFee)
		assert.Equal(t, 366.66, q.Total)
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, calc.QuoteFor(123.45), calc.QuoteFor(123.45))
	})

	t.Run("LinesAddUp", func(t *testing.T) {
		for _, base := range []float64{1, 9.99, 250, 333.33, 1999.95} {
			q := calc.QuoteFor(base)
			assert.InDelta(t, q.Total, q.BaseFee+q.ServiceFee, 0.001)
		}
	})
}

func TestBreakdown(t *testing.T) {
	calc := NewCalculator(0.10)

	t.Run("ExactInversion", func(t *testing.T) {
		b := calc.Breakdown(550.00)
		assert.Equal(t, 500.00, b.BaseFee)
		assert.Equal(t, 50.00, b.ServiceFee)
		assert.Equal(t, 550.00, b.Total)
	})

	t.Run("RoundTripBound", func(t *testing.T) {
		for _, base := range []float64{1, 9.99, 87.65, 333.33, 500, 1234.56} {
			forward := calc.QuoteFor(base)
			back := calc.Breakdown(forward.Total)

			assert.Equal(t, forward.Total, back.Total, "total must survive exactly")
			diff := math.Abs(back.BaseFee + back.ServiceFee - forward.Total)
			assert.LessOrEqual(t, diff, 0.01, "reconstruction may drift at most one cent")
		}
	})

	t.Run("ZeroTotal", func(t *testing.T) {
		assert.Equal(t, Quote{}, calc.Breakdown(0))
	})
}

func TestNewCalculatorRateFallback(t *testing.T) {
	assert.Equal(t, DefaultServiceFeeRate, NewCalculator(0).Rate())
	assert.Equal(t, DefaultServiceFeeRate, NewCalculator(-0.5).Rate())
	assert.Equal(t, DefaultServiceFeeRate, NewCalculator(1.5).Rate())
	assert.Equal(t, 0.15, NewCalculator(0.15).Rate())
}
