package indicators

// EMASeries computes the exponential moving average over values with
// alpha = 2/(period+1), seeded by the first value. The returned slice has
// the same length as the input.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}

	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// EMA returns the latest EMA value for the series.
func EMA(values []float64, period int) float64 {
	series := EMASeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
