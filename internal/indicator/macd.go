package indicator

// MACDResult holds the three MACD series, all of length len(prices).
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates Moving Average Convergence Divergence. The underlying EMAs
// are seeded at the first price so every output series has full length and
// stays aligned with the input.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	if len(prices) == 0 {
		return MACDResult{
			MACD:      []float64{},
			Signal:    []float64{},
			Histogram: []float64{},
		}
	}

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)

	macd := make([]float64, len(prices))
	for i := range prices {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := emaSeries(macd, signal)

	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = macd[i] - signalLine[i]
	}

	return MACDResult{MACD: macd, Signal: signalLine, Histogram: hist}
}

// emaSeries computes a full-length EMA seeded at the first value, with
// smoothing factor 2/(period+1).
func emaSeries(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}

	multiplier := 2.0 / float64(period+1)
	ema := values[0]
	result[0] = ema
	for i := 1; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result[i] = ema
	}
	return result
}
