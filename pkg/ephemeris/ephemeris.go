// Package ephemeris computes the Earth-Sun distance for telemetry samples
// that arrive without one. Earth-orbiting arrays see the sun at Earth's
// heliocentric distance to well under the model error of everything
// downstream.
package ephemeris

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// AUKilometers is one astronomical unit in kilometers.
const AUKilometers = 149597870.7

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// SunDistanceAU returns the Earth-Sun distance in astronomical units at t.
// Mean anomaly and eccentricity series per libastro s_edist; accurate to a
// few parts in 1e5, well inside the flux model's error budget.
func SunDistanceAU(t time.Time) float64 {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708617 - T*(0.000042037+T*0.0000001236)

	// Eccentric anomaly from one Newton step, then the true anomaly
	MRad := degToRad(M)
	E := MRad + e*math.Sin(MRad)*(1+e*math.Cos(MRad))
	v := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))

	return (1 - e*e) / (1 + e*math.Cos(v))
}

// SunDistanceKm returns the Earth-Sun distance in kilometers at t.
func SunDistanceKm(t time.Time) float64 {
	return SunDistanceAU(t) * AUKilometers
}
