package indicators

import "errors"

// ErrInsufficientData is returned when a window does not cover the
// required lookback. Callers must not generate signals from it.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// RSI computes the Relative Strength Index as the ratio of the simple
// rolling means of gains and losses over the last `period` price deltas.
// Needs at least period+1 values. When the average loss is zero the RSI
// is exactly 100.
func RSI(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, ErrInsufficientData
	}

	gain := 0.0
	loss := 0.0
	for i := len(values) - period; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}
