// Package vectormath provides the small set of vector operations the
// telemetry pipeline needs for attitude work: norms, dot products, and the
// angle between a sun vector and a panel normal.
package vectormath

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrZeroVector is returned when an operation needs a direction and the
// vector has no length to define one.
var ErrZeroVector = errors.New("zero-length vector")

// Norm returns the Euclidean norm of v. The zero vector has norm 0.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Dot returns the dot product of a and b. Like gonum's floats.Dot it panics
// when the lengths differ.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Unit returns v scaled to unit length.
func Unit(v []float64) ([]float64, error) {
	n := Norm(v)
	if n == 0 {
		return nil, ErrZeroVector
	}

	u := make([]float64, len(v))
	for i, x := range v {
		u[i] = x / n
	}
	return u, nil
}

// AngleBetweenDeg returns the angle between a and b in degrees, in [0, 180].
// Either vector having zero length returns ErrZeroVector.
func AngleBetweenDeg(a, b []float64) (float64, error) {
	na := Norm(a)
	nb := Norm(b)
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}

	// Rounding can push the cosine a hair outside [-1, 1]
	c := Dot(a, b) / (na * nb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}

	return math.Acos(c) * (180.0 / math.Pi), nil
}
