package solarpanel

import (
	"errors"
	"math"
	"testing"
)

func TestPower(t *testing.T) {
	tests := []struct {
		name          string
		sunDistanceAU float64
		area          float64
		efficiency    float64
		incidenceDeg  float64
		solarConstant float64
		expected      float64
		epsilon       float64
	}{
		{
			// Every factor at 1 leaves the bare solar constant
			name:          "unity parameters at 1 AU",
			sunDistanceAU: 1, area: 1, efficiency: 1, incidenceDeg: 0, solarConstant: 1366,
			expected: 1366.0, epsilon: 1e-9,
		},
		{
			name:          "edge-on panel produces nothing",
			sunDistanceAU: 1, area: 1, efficiency: 1, incidenceDeg: 90, solarConstant: 1366,
			expected: 0.0, epsilon: 1e-10,
		},
		{
			name:          "GEO comsat wing off-pointed through solstice",
			sunDistanceAU: 1, area: 60, efficiency: 0.28, incidenceDeg: 23.5, solarConstant: 1366,
			expected: 21045.43, epsilon: 0.01,
		},
		{
			name:          "Mars orbiter wing",
			sunDistanceAU: 1.524, area: 24, efficiency: 0.295, incidenceDeg: 10, solarConstant: 1366,
			expected: 4100.77, epsilon: 0.01,
		},
		{
			// Past 90° the cosine goes negative and stays that way
			name:          "back-lit panel reports negative power",
			sunDistanceAU: 1, area: 1, efficiency: 1, incidenceDeg: 120, solarConstant: 1366,
			expected: -683.0, epsilon: 1e-9,
		},
		{
			name:          "half an AU quadruples output",
			sunDistanceAU: 0.5, area: 1, efficiency: 1, incidenceDeg: 0, solarConstant: 1366,
			expected: 5464.0, epsilon: 1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Power(tt.sunDistanceAU, tt.area, tt.efficiency, tt.incidenceDeg, tt.solarConstant)
			if err != nil {
				t.Fatalf("Power() error = %v", err)
			}
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("Power() = %.6f, expected %.6f ± %g", got, tt.expected, tt.epsilon)
			}
		})
	}
}

func TestPowerInverseSquare(t *testing.T) {
	near, err := Power(1, 12, 0.28, 0, 1366)
	if err != nil {
		t.Fatalf("Power() at 1 AU: %v", err)
	}
	far, err := Power(2, 12, 0.28, 0, 1366)
	if err != nil {
		t.Fatalf("Power() at 2 AU: %v", err)
	}

	if math.Abs(far-near/4) > 1e-9 {
		t.Errorf("power at 2 AU = %.6f, expected a quarter of %.6f", far, near)
	}
}

func TestEquilibriumTemperature(t *testing.T) {
	tests := []struct {
		name          string
		sunDistanceAU float64
		absorptivity  float64
		emissivity    float64
		solarConstant float64
		expected      float64
		epsilon       float64
	}{
		{
			// (1366 / 2σ)^0.25
			name:          "unity materials at 1 AU",
			sunDistanceAU: 1, absorptivity: 1, emissivity: 1, solarConstant: 1366,
			expected: 331.2854, epsilon: 0.001,
		},
		{
			name:          "default panel materials at 1 AU",
			sunDistanceAU: 1, absorptivity: 0.85, emissivity: 0.72, solarConstant: 1366,
			expected: 345.3217, epsilon: 0.001,
		},
		{
			name:          "default panel materials at Mars",
			sunDistanceAU: 1.524, absorptivity: 0.85, emissivity: 0.72, solarConstant: 1366,
			expected: 279.7251, epsilon: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EquilibriumTemperature(tt.sunDistanceAU, tt.absorptivity, tt.emissivity, tt.solarConstant)
			if err != nil {
				t.Fatalf("EquilibriumTemperature() error = %v", err)
			}
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("EquilibriumTemperature() = %.4f K, expected %.4f ± %g", got, tt.expected, tt.epsilon)
			}
		})
	}
}

func TestEquilibriumTemperatureMonotonic(t *testing.T) {
	// Moving away from the sun always cools the panel
	distances := []float64{0.3, 0.7, 1.0, 1.5, 2.2, 5.2, 9.5}

	prev := math.Inf(1)
	for _, d := range distances {
		got, err := EquilibriumTemperature(d, 0.85, 0.72, 1366)
		if err != nil {
			t.Fatalf("EquilibriumTemperature(%v): %v", d, err)
		}
		if got >= prev {
			t.Errorf("EquilibriumTemperature(%v) = %.4f K, not below %.4f K", d, got, prev)
		}
		prev = got
	}
}

func TestEquilibriumTemperatureCelsius(t *testing.T) {
	kelvin, err := EquilibriumTemperature(1, 1, 1, 1366)
	if err != nil {
		t.Fatalf("EquilibriumTemperature(): %v", err)
	}
	celsius, err := EquilibriumTemperatureCelsius(1, 1, 1, 1366)
	if err != nil {
		t.Fatalf("EquilibriumTemperatureCelsius(): %v", err)
	}

	if math.Abs(celsius-(kelvin-273.15)) > 1e-9 {
		t.Errorf("Celsius = %.4f, expected %.4f", celsius, kelvin-273.15)
	}
	if math.Abs(celsius-58.1354) > 0.001 {
		t.Errorf("Celsius = %.4f, expected 58.1354", celsius)
	}
}

func TestZeroSunDistance(t *testing.T) {
	if _, err := Power(0, 1, 1, 0, 1366); !errors.Is(err, ErrZeroSunDistance) {
		t.Errorf("Power(0, ...) error = %v, expected ErrZeroSunDistance", err)
	}
	if _, err := EquilibriumTemperature(0, 1, 1, 1366); !errors.Is(err, ErrZeroSunDistance) {
		t.Errorf("EquilibriumTemperature(0, ...) error = %v, expected ErrZeroSunDistance", err)
	}
	if _, err := EquilibriumTemperatureCelsius(0, 1, 1, 1366); !errors.Is(err, ErrZeroSunDistance) {
		t.Errorf("EquilibriumTemperatureCelsius(0, ...) error = %v, expected ErrZeroSunDistance", err)
	}
}

func TestNewPanelDefaults(t *testing.T) {
	p := NewPanel(42.5)

	if p.Area != 42.5 {
		t.Errorf("Area = %v, expected 42.5", p.Area)
	}
	if p.Efficiency != 0.28 {
		t.Errorf("Efficiency = %v, expected 0.28", p.Efficiency)
	}
	if p.Absorptivity != 0.85 {
		t.Errorf("Absorptivity = %v, expected 0.85", p.Absorptivity)
	}
	if p.Emissivity != 0.72 {
		t.Errorf("Emissivity = %v, expected 0.72", p.Emissivity)
	}
	if p.SolarConstant != 1366.0 {
		t.Errorf("SolarConstant = %v, expected 1366.0", p.SolarConstant)
	}

	power, err := p.Power(1, 0)
	if err != nil {
		t.Fatalf("Panel.Power(): %v", err)
	}
	expected := 1366.0 * 42.5 * 0.28
	if math.Abs(power-expected) > 1e-6 {
		t.Errorf("Panel.Power() = %.4f, expected %.4f", power, expected)
	}
}
