package util

// Coerce returns the given value, limited to the range [min, max]
func Coerce(value float64, min float64, max float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}
