package indicator

// RSI calculates the Relative Strength Index using a rolling simple mean of
// gains and losses.
// Returns slice of length: len(prices) - period, aligned so the last value
// corresponds to the last price.
func RSI(prices []float64, period int) []float64 {
	if len(prices) <= period {
		return []float64{}
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	result := make([]float64, 0, len(prices)-period)

	var gainSum, lossSum float64
	for i := 0; i < period; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
	}
	result = append(result, rsiValue(gainSum, lossSum))

	for i := period; i < len(gains); i++ {
		gainSum = gainSum - gains[i-period] + gains[i]
		lossSum = lossSum - losses[i-period] + losses[i]
		result = append(result, rsiValue(gainSum, lossSum))
	}

	return result
}

// rsiValue converts rolling gain/loss sums into the 0-100 oscillator. A zero
// loss sum means all-up moves: RSI pegs at 100 instead of dividing by zero;
// no movement at all reads as neutral 50.
func rsiValue(gainSum, lossSum float64) float64 {
	if lossSum == 0 {
		if gainSum == 0 {
			return 50
		}
		return 100
	}
	rs := gainSum / lossSum
	return 100 - 100/(1+rs)
}
