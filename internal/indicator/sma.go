package indicator

// SMA computes a simple moving average over a rolling window, using a
// running sum so long series stay O(n).
// Returns slice of length: len(prices) - period + 1.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}

	result := make([]float64, 0, len(prices)-period+1)
	result = append(result, sum/float64(period))

	for i := period; i < len(prices); i++ {
		sum += prices[i] - prices[i-period]
		result = append(result, sum/float64(period))
	}

	return result
}

// Last returns the final value of an indicator series, with ok reporting
// whether the series had any values at all. Scorers use it to read the
// present-day value of a windowed computation.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}
