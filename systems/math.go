package systems

import "math"

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	return clampFloat(v, 0, 1)
}

func isNaN(v float32) bool {
	return v != v
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float32) bool {
	return !isNaN(v) && !math.IsInf(float64(v), 0)
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
