package indicators

// Momentum returns close[t] − close[t−period] for the latest value.
func Momentum(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, ErrInsufficientData
	}
	return values[len(values)-1] - values[len(values)-1-period], nil
}
