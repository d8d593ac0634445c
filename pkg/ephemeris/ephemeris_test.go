package ephemeris

import (
	"math"
	"testing"
	"time"
)

func TestSunDistanceAU(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
		epsilon  float64
	}{
		{
			// Known perihelion: Jan 4, 2023 16:17 UTC
			name:     "perihelion 2023",
			time:     time.Date(2023, 1, 4, 16, 17, 0, 0, time.UTC),
			expected: 0.98330,
			epsilon:  0.0005,
		},
		{
			// Known aphelion: Jul 6, 2023 20:06 UTC
			name:     "aphelion 2023",
			time:     time.Date(2023, 7, 6, 20, 6, 0, 0, time.UTC),
			expected: 1.01670,
			epsilon:  0.0005,
		},
		{
			// March equinox sits between the extremes
			name:     "equinox 2023",
			time:     time.Date(2023, 3, 20, 21, 24, 0, 0, time.UTC),
			expected: 0.99589,
			epsilon:  0.0005,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDistanceAU(tt.time)
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("SunDistanceAU() = %.5f, expected %.5f ± %g", got, tt.expected, tt.epsilon)
			}
		})
	}
}

func TestSunDistanceAURange(t *testing.T) {
	// Earth's orbit never strays outside [perihelion, aphelion]
	for month := time.January; month <= time.December; month++ {
		d := SunDistanceAU(time.Date(2024, month, 15, 0, 0, 0, 0, time.UTC))
		if d < 0.9820 || d > 1.0175 {
			t.Errorf("SunDistanceAU(2024-%02d-15) = %.5f, outside orbital range", month, d)
		}
	}
}

func TestSunDistanceKm(t *testing.T) {
	at := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

	au := SunDistanceAU(at)
	km := SunDistanceKm(at)

	if math.Abs(km-au*AUKilometers) > 1 {
		t.Errorf("SunDistanceKm() = %.1f, expected %.1f", km, au*AUKilometers)
	}
}
