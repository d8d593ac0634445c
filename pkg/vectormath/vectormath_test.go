package vectormath

import (
	"errors"
	"math"
	"testing"
)

func TestNorm(t *testing.T) {
	tests := []struct {
		name     string
		v        []float64
		expected float64
	}{
		{"zero vector has zero norm", []float64{0, 0, 0}, 0},
		{"unit x", []float64{1, 0, 0}, 1},
		{"pythagorean triple", []float64{3, 4, 0}, 5},
		{"negative components", []float64{-2, -3, -6}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Norm(tt.v); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Norm(%v) = %v, expected %v", tt.v, got, tt.expected)
			}
		})
	}
}

func TestAngleBetweenDeg(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
		epsilon  float64
	}{
		{"parallel", []float64{1, 0, 0}, []float64{5, 0, 0}, 0, 1e-9},
		{"orthogonal", []float64{1, 0, 0}, []float64{0, 2, 0}, 90, 1e-9},
		{"anti-parallel", []float64{0, 0, 1}, []float64{0, 0, -3}, 180, 1e-9},
		{"forty-five", []float64{1, 0, 0}, []float64{1, 1, 0}, 45, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AngleBetweenDeg(tt.a, tt.b)
			if err != nil {
				t.Fatalf("AngleBetweenDeg() error = %v", err)
			}
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("AngleBetweenDeg(%v, %v) = %v, expected %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestAngleBetweenDegZeroVector(t *testing.T) {
	if _, err := AngleBetweenDeg([]float64{0, 0, 0}, []float64{1, 0, 0}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("error = %v, expected ErrZeroVector", err)
	}
	if _, err := AngleBetweenDeg([]float64{1, 0, 0}, []float64{0, 0, 0}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("error = %v, expected ErrZeroVector", err)
	}
}

func TestUnit(t *testing.T) {
	u, err := Unit([]float64{0, 3, 4})
	if err != nil {
		t.Fatalf("Unit() error = %v", err)
	}

	expected := []float64{0, 0.6, 0.8}
	for i := range expected {
		if math.Abs(u[i]-expected[i]) > 1e-12 {
			t.Errorf("Unit()[%d] = %v, expected %v", i, u[i], expected[i])
		}
	}

	if _, err := Unit([]float64{0, 0, 0}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("Unit(zero) error = %v, expected ErrZeroVector", err)
	}
}
