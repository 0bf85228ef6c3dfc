package transform

import "math"

// Speed returns the magnitude of a velocity vector: √(ẋ²+ẏ²+ż²).
// The result is in whatever unit the components carry (km/s for the feed).
func Speed(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
