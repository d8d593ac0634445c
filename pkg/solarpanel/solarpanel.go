// Package solarpanel implements performance models for flat photovoltaic
// panels: instantaneous electrical output from the inverse-square cosine
// model and steady-state panel temperature from radiative balance.
package solarpanel

import (
	"errors"
	"math"
)

const (
	// SolarConstantAU is the solar irradiance at 1 AU in W/m².
	SolarConstantAU = 1366.0

	// StefanBoltzmann is the Stefan-Boltzmann constant in W/(m²·K⁴).
	StefanBoltzmann = 5.670374419e-8

	// Typical properties of a rigid triple-junction array panel, used by
	// NewPanel when the config does not override them.
	DefaultEfficiency   = 0.28
	DefaultAbsorptivity = 0.85
	DefaultEmissivity   = 0.72
)

// ErrZeroSunDistance is returned when the sun distance is exactly zero and
// the inverse-square flux is undefined.
var ErrZeroSunDistance = errors.New("sun distance is zero")

// Power returns the instantaneous electrical output in watts of a flat panel.
//
//	power = (1 / d²) × solarConstant × area × efficiency × cos(incidence)
//
// sunDistanceAU is the panel-to-sun distance in astronomical units, area the
// illuminated cell area in m², efficiency the cell conversion fraction, and
// incidenceDeg the angle in degrees between the sun vector and the panel
// normal. Incidence past 90° yields negative power, a back-lit panel; the
// value is not clamped so callers can see pointing excursions for what they
// are.
func Power(sunDistanceAU, area, efficiency, incidenceDeg, solarConstant float64) (float64, error) {
	if sunDistanceAU == 0 {
		return 0, ErrZeroSunDistance
	}

	flux := solarConstant / (sunDistanceAU * sunDistanceAU)
	return flux * area * efficiency * math.Cos(degToRad(incidenceDeg)), nil
}

// EquilibriumTemperature returns the steady-state temperature in kelvin of a
// flat panel that absorbs on one face and radiates from both:
//
//	α × flux = 2 × ε × σ × T⁴,  flux = solarConstant / d²
//
// absorptivity and emissivity are unitless material fractions.
func EquilibriumTemperature(sunDistanceAU, absorptivity, emissivity, solarConstant float64) (float64, error) {
	if sunDistanceAU == 0 {
		return 0, ErrZeroSunDistance
	}

	flux := solarConstant / (sunDistanceAU * sunDistanceAU)
	return math.Pow((absorptivity*flux)/(2*emissivity*StefanBoltzmann), 0.25), nil
}

// EquilibriumTemperatureCelsius returns EquilibriumTemperature in Celsius.
func EquilibriumTemperatureCelsius(sunDistanceAU, absorptivity, emissivity, solarConstant float64) (float64, error) {
	kelvin, err := EquilibriumTemperature(sunDistanceAU, absorptivity, emissivity, solarConstant)
	if err != nil {
		return 0, err
	}
	return kelvin - 273.15, nil
}

// Panel holds the physical properties of a single array panel.
type Panel struct {
	Area          float64 // illuminated cell area, m²
	Efficiency    float64
	Absorptivity  float64
	Emissivity    float64
	SolarConstant float64 // irradiance at 1 AU, W/m²
}

// NewPanel returns a Panel of the given area with the default material
// properties and solar constant.
func NewPanel(area float64) Panel {
	return Panel{
		Area:          area,
		Efficiency:    DefaultEfficiency,
		Absorptivity:  DefaultAbsorptivity,
		Emissivity:    DefaultEmissivity,
		SolarConstant: SolarConstantAU,
	}
}

// Power returns the panel's electrical output in watts at the given sun
// distance and incidence angle.
func (p Panel) Power(sunDistanceAU, incidenceDeg float64) (float64, error) {
	return Power(sunDistanceAU, p.Area, p.Efficiency, incidenceDeg, p.SolarConstant)
}

// EquilibriumTemperature returns the panel's equilibrium temperature in
// kelvin at the given sun distance.
func (p Panel) EquilibriumTemperature(sunDistanceAU float64) (float64, error) {
	return EquilibriumTemperature(sunDistanceAU, p.Absorptivity, p.Emissivity, p.SolarConstant)
}

// EquilibriumTemperatureCelsius returns the panel's equilibrium temperature
// in Celsius at the given sun distance.
func (p Panel) EquilibriumTemperatureCelsius(sunDistanceAU float64) (float64, error) {
	return EquilibriumTemperatureCelsius(sunDistanceAU, p.Absorptivity, p.Emissivity, p.SolarConstant)
}

// degToRad converts degrees to radians
func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
