package util

// ClampNonNegative returns x, or zero when x is negative.
func ClampNonNegative(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}
