package indicators

import "math"

// Bollinger computes the Bollinger Bands for the last `period` values:
// middle is the simple moving average, upper/lower sit stdDevMult
// standard deviations away.
func Bollinger(values []float64, period int, stdDevMult float64) (upper, middle, lower float64, err error) {
	if len(values) < period {
		return 0, 0, 0, ErrInsufficientData
	}

	recent := values[len(values)-period:]

	sum := 0.0
	for _, v := range recent {
		sum += v
	}
	middle = sum / float64(period)

	variance := 0.0
	for _, v := range recent {
		diff := v - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	upper = middle + stdDevMult*stdDev
	lower = middle - stdDevMult*stdDev
	return upper, middle, lower, nil
}
