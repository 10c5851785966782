package forecast

import "math"

// linearFit computes ordinary least squares slope and intercept for y
// against x. A degenerate input (no points, or zero variance in x)
// yields a flat line through the mean of y, which covers the
// single-sample window without a special case.
func linearFit(xs, ys []float64) (slope, intercept float64) {
	if len(xs) == 0 {
		return 0, 0
	}

	meanX := mean(xs)
	meanY := mean(ys)

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}

	if sxx == 0 {
		return 0, meanY
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept
}

// mean calculates the arithmetic mean of values.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev calculates sample standard deviation (n-1 denominator).
// Fewer than two values yields 0.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}
