package testutil

import "math"

// UnitVector returns a dim-wide unit vector along the given axis. Two
// different axes are orthogonal, so their cosine similarity is 0.
func UnitVector(dim, axis int) []float32 {
	vec := make([]float32, dim)
	vec[axis%dim] = 1
	return vec
}

// AngledVector returns a dim-wide unit vector at the given angle (radians)
// from axis 0, rotated within the plane of axes 0 and 1. Cosine similarity
// between AngledVector(d, 0) and AngledVector(d, a) is cos(a).
func AngledVector(dim int, angle float64) []float32 {
	vec := make([]float32, dim)
	vec[0] = float32(math.Cos(angle))
	vec[1] = float32(math.Sin(angle))
	return vec
}
