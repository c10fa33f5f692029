package indicator

import "math"

// BollingerBands holds the three band series, each of length
// len(prices) - period + 1, aligned so the last value corresponds to the
// last price.
type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands: an SMA middle band with upper/lower
// bands numStd sample standard deviations away.
func Bollinger(prices []float64, period int, numStd float64) BollingerBands {
	if len(prices) < period {
		return BollingerBands{
			Upper:  []float64{},
			Middle: []float64{},
			Lower:  []float64{},
		}
	}

	n := len(prices) - period + 1
	bands := BollingerBands{
		Upper:  make([]float64, 0, n),
		Middle: make([]float64, 0, n),
		Lower:  make([]float64, 0, n),
	}

	for i := 0; i+period <= len(prices); i++ {
		window := prices[i : i+period]

		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)

		var variance float64
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / float64(period-1))

		bands.Middle = append(bands.Middle, mean)
		bands.Upper = append(bands.Upper, mean+numStd*std)
		bands.Lower = append(bands.Lower, mean-numStd*std)
	}

	return bands
}
