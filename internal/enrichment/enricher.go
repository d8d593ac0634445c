// Package enrichment fills the model-derived fields on telemetry readings
// before they reach the storage distributor: sun distance, incidence angle,
// predicted power, equilibrium temperature, and performance ratio.
package enrichment

import (
	"errors"
	"math"
	"sync"

	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"github.com/arrayops/remotearray/pkg/ephemeris"
	"github.com/arrayops/remotearray/pkg/solarpanel"
	"github.com/arrayops/remotearray/pkg/vectormath"
	"go.uber.org/zap"
)

// Readings with measured power below this fraction of predicted power while
// sunlit are treated as eclipsed
const eclipsePowerFraction = 0.01

// Enricher computes model-derived fields for readings from one array. It is
// bound to the array's panel properties at construction so the per-reading
// path does no config lookups.
type Enricher struct {
	sourceName string
	panel      solarpanel.Panel
	normal     []float64

	// FillSunDistance controls whether readings that arrive without a sun
	// distance get one from the Earth ephemeris. Earth-orbiting arrays want
	// this on; deep-space arrays must telemeter their own distance.
	FillSunDistance bool

	logger *zap.SugaredLogger

	// The receiver source shares one enricher across gnet's event loops, so
	// the one-time warning must be safe under concurrent Enrich calls
	warnZeroOnce sync.Once
}

// NewEnricher builds an enricher for one configured array. Zero-valued panel
// properties in the config fall back to the solarpanel package defaults.
func NewEnricher(array config.ArrayData, logger *zap.SugaredLogger) *Enricher {
	panel := solarpanel.NewPanel(array.Panel.Area)
	if array.Panel.Efficiency != 0 {
		panel.Efficiency = array.Panel.Efficiency
	}
	if array.Panel.Absorptivity != 0 {
		panel.Absorptivity = array.Panel.Absorptivity
	}
	if array.Panel.Emissivity != 0 {
		panel.Emissivity = array.Panel.Emissivity
	}
	if array.Panel.SolarConstant != 0 {
		panel.SolarConstant = array.Panel.SolarConstant
	}

	normal := array.Panel.Normal()
	if vectormath.Norm(normal) == 0 {
		// No normal configured; readings must carry their own vectors or
		// incidence angle
		normal = nil
	}

	return &Enricher{
		sourceName:      array.Name,
		panel:           panel,
		normal:          normal,
		FillSunDistance: true,
		logger:          logger,
	}
}

// Panel returns the panel model the enricher was built with.
func (e *Enricher) Panel() solarpanel.Panel {
	return e.panel
}

// Enrich fills the derived fields on r in place. Raw measurement fields are
// never modified. A reading the model cannot be applied to is passed through
// with its derived fields left at zero.
func (e *Enricher) Enrich(r *types.ArrayReading) {
	e.fillSunDistance(r)
	e.fillIncidenceAngle(r)

	d := float64(r.SunDistanceAU)

	predicted, err := e.panel.Power(d, float64(r.IncidenceAngle))
	if err != nil {
		e.handleModelError(err)
		return
	}
	r.PredictedPower = float32(predicted)

	eqTemp, err := e.panel.EquilibriumTemperatureCelsius(d)
	if err != nil {
		e.handleModelError(err)
		return
	}
	r.EquilibriumTemp = float32(eqTemp)

	e.fillPerformanceRatio(r, predicted)
}

// fillSunDistance populates SunDistanceAU from the Earth ephemeris when the
// source did not telemeter one.
func (e *Enricher) fillSunDistance(r *types.ArrayReading) {
	if r.SunDistanceAU != 0 || !e.FillSunDistance {
		return
	}
	r.SunDistanceAU = float32(ephemeris.SunDistanceAU(r.Timestamp))
}

// fillIncidenceAngle computes the incidence angle from the sun vector and
// panel normal when both are available. A reading that already carries an
// incidence angle and no sun vector keeps what it has.
func (e *Enricher) fillIncidenceAngle(r *types.ArrayReading) {
	sun := r.SunVector()
	if vectormath.Norm(sun) == 0 {
		return
	}

	normal := r.PanelNormal()
	if vectormath.Norm(normal) == 0 {
		normal = e.normal
	}
	if normal == nil {
		return
	}

	angle, err := vectormath.AngleBetweenDeg(sun, normal)
	if err != nil {
		monitoring.EnrichmentFailures.WithLabelValues(e.sourceName, "zero_vector").Inc()
		return
	}
	r.IncidenceAngle = float32(angle)
}

// fillPerformanceRatio computes measured over predicted power. Eclipsed
// samples and samples with no meaningful prediction are skipped: a ratio
// against a dark or back-lit panel says nothing about cell health.
func (e *Enricher) fillPerformanceRatio(r *types.ArrayReading, predicted float64) {
	if predicted <= 0 {
		return
	}

	measured := float64(r.OutputPower)
	if !r.Eclipse && measured < predicted*eclipsePowerFraction && r.IncidenceAngle < 90 {
		// Producing nothing while pointed at the sun: the array is in
		// shadow, not broken
		r.Eclipse = true
	}
	if r.Eclipse {
		return
	}

	ratio := measured / predicted
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return
	}
	r.PerformanceRatio = float32(ratio)
}

// handleModelError logs a zero-sun-distance reading once per source; the
// condition repeats every sample when a source is misconfigured and one
// warning is enough.
func (e *Enricher) handleModelError(err error) {
	if errors.Is(err, solarpanel.ErrZeroSunDistance) {
		monitoring.EnrichmentFailures.WithLabelValues(e.sourceName, "zero_sun_distance").Inc()
		e.warnZeroOnce.Do(func() {
			e.logger.Warnf("array [%s] reported zero sun distance; model fields will be left unset", e.sourceName)
		})
		return
	}
	monitoring.EnrichmentFailures.WithLabelValues(e.sourceName, "model").Inc()
	e.logger.Errorf("enrichment error for array [%s]: %v", e.sourceName, err)
}
