package indicators

// MACD computes the MACD line (EMA(fast) − EMA(slow)) and its signal line
// (EMA of the MACD series over signalPeriod) for the latest value.
func MACD(values []float64, fast, slow, signalPeriod int) (macdLine, signalLine float64) {
	if len(values) == 0 {
		return 0, 0
	}

	fastSeries := EMASeries(values, fast)
	slowSeries := EMASeries(values, slow)

	macdSeries := make([]float64, len(values))
	for i := range values {
		macdSeries[i] = fastSeries[i] - slowSeries[i]
	}

	signalSeries := EMASeries(macdSeries, signalPeriod)

	return macdSeries[len(macdSeries)-1], signalSeries[len(signalSeries)-1]
}
