package indicator

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// VolumeRatio returns the last bar's volume over the mean of the last
// period volumes. It returns 1.0 when there is not enough history or the
// average is zero.
func VolumeRatio(volumes []float64, period int) float64 {
	if len(volumes) < period {
		return 1.0
	}
	avg := SMA(volumes[len(volumes)-period:], period)
	if len(avg) == 0 || avg[0] <= 0 {
		return 1.0
	}
	return volumes[len(volumes)-1] / avg[0]
}

// HighLow returns the highest high and lowest low over the last period bars.
func HighLow(highs, lows []float64, period int) (high, low float64, ok bool) {
	if len(highs) == 0 || len(highs) != len(lows) {
		return 0, 0, false
	}
	start := len(highs) - period
	if start < 0 {
		start = 0
	}
	high, low = highs[start], lows[start]
	for i := start + 1; i < len(highs); i++ {
		if highs[i] > high {
			high = highs[i]
		}
		if lows[i] < low {
			low = lows[i]
		}
	}
	return high, low, true
}
