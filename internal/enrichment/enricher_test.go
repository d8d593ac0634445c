package enrichment

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"github.com/arrayops/remotearray/pkg/solarpanel"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testArray() config.ArrayData {
	return config.ArrayData{
		Name: "array-a",
		Type: "groundstation",
		Panel: config.PanelData{
			Area:    10.0,
			NormalX: 1,
		},
	}
}

func newTestEnricher(t *testing.T) *Enricher {
	t.Helper()
	return NewEnricher(testArray(), zap.NewNop().Sugar())
}

func TestEnricherPredictedPower(t *testing.T) {
	e := newTestEnricher(t)
	e.FillSunDistance = false

	r := types.ArrayReading{
		Timestamp:     time.Now(),
		SunDistanceAU: 1.0,
		SunVectorX:    1, // aligned with the configured normal
	}
	e.Enrich(&r)

	if math.Abs(float64(r.IncidenceAngle)) > 1e-4 {
		t.Errorf("incidence angle: got %v, want 0", r.IncidenceAngle)
	}

	// 1366 W/m² × 10 m² × 0.28 at normal incidence
	want := solarpanel.SolarConstantAU * 10.0 * solarpanel.DefaultEfficiency
	if math.Abs(float64(r.PredictedPower)-want) > 0.1 {
		t.Errorf("predicted power: got %v, want %v", r.PredictedPower, want)
	}
	if r.EquilibriumTemp == 0 {
		t.Error("equilibrium temp was not filled")
	}
}

func TestEnricherIncidenceFromVectors(t *testing.T) {
	tests := []struct {
		name      string
		reading   types.ArrayReading
		wantAngle float64
	}{
		{
			name: "sun vector against configured normal",
			reading: types.ArrayReading{
				SunDistanceAU: 1,
				SunVectorY:    1, // perpendicular to the +X normal
			},
			wantAngle: 90,
		},
		{
			name: "reading-supplied normal wins over config",
			reading: types.ArrayReading{
				SunDistanceAU: 1,
				SunVectorX:    1,
				PanelNormalX:  1,
				PanelNormalY:  1,
			},
			wantAngle: 45,
		},
		{
			name: "no sun vector keeps telemetered angle",
			reading: types.ArrayReading{
				SunDistanceAU:  1,
				IncidenceAngle: 12.5,
			},
			wantAngle: 12.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnricher(t)
			e.Enrich(&tt.reading)
			if math.Abs(float64(tt.reading.IncidenceAngle)-tt.wantAngle) > 1e-3 {
				t.Errorf("incidence angle: got %v, want %v", tt.reading.IncidenceAngle, tt.wantAngle)
			}
		})
	}
}

func TestEnricherFillsSunDistanceFromEphemeris(t *testing.T) {
	e := newTestEnricher(t)

	r := types.ArrayReading{
		Timestamp:  time.Date(2025, time.March, 21, 12, 0, 0, 0, time.UTC),
		SunVectorX: 1,
	}
	e.Enrich(&r)

	// Earth stays within ~1.7% of 1 AU year round
	if r.SunDistanceAU < 0.98 || r.SunDistanceAU > 1.02 {
		t.Errorf("filled sun distance %v is not plausibly 1 AU", r.SunDistanceAU)
	}
	if r.PredictedPower == 0 {
		t.Error("predicted power was not computed after distance fill")
	}
}

func TestEnricherPerformanceRatio(t *testing.T) {
	e := newTestEnricher(t)
	e.FillSunDistance = false

	predicted := solarpanel.SolarConstantAU * 10.0 * solarpanel.DefaultEfficiency

	tests := []struct {
		name        string
		reading     types.ArrayReading
		wantRatio   float64
		wantEclipse bool
	}{
		{
			name: "healthy array near unity",
			reading: types.ArrayReading{
				SunDistanceAU: 1,
				SunVectorX:    1,
				OutputPower:   float32(predicted * 0.95),
			},
			wantRatio: 0.95,
		},
		{
			name: "dark while sunlit flags eclipse and skips ratio",
			reading: types.ArrayReading{
				SunDistanceAU: 1,
				SunVectorX:    1,
				OutputPower:   0,
			},
			wantRatio:   0,
			wantEclipse: true,
		},
		{
			name: "flagged eclipse skips ratio",
			reading: types.ArrayReading{
				SunDistanceAU: 1,
				SunVectorX:    1,
				OutputPower:   float32(predicted),
				Eclipse:       true,
			},
			wantRatio:   0,
			wantEclipse: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Enrich(&tt.reading)
			if math.Abs(float64(tt.reading.PerformanceRatio)-tt.wantRatio) > 1e-3 {
				t.Errorf("performance ratio: got %v, want %v", tt.reading.PerformanceRatio, tt.wantRatio)
			}
			if tt.reading.Eclipse != tt.wantEclipse {
				t.Errorf("eclipse flag: got %v, want %v", tt.reading.Eclipse, tt.wantEclipse)
			}
		})
	}
}

func TestEnricherZeroSunDistanceLeavesModelFieldsUnset(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEnricher(testArray(), zap.New(core).Sugar())
	e.FillSunDistance = false

	r := types.ArrayReading{
		Timestamp:  time.Now(),
		SunVectorX: 1,
	}
	e.Enrich(&r)

	if r.PredictedPower != 0 || r.EquilibriumTemp != 0 || r.PerformanceRatio != 0 {
		t.Errorf("model fields were set despite zero sun distance: %+v", r)
	}

	// Second reading must not warn again but still counts the failure
	e.Enrich(&r)
	if got := logs.Len(); got != 1 {
		t.Errorf("zero sun distance warned %d times, want exactly once", got)
	}
}

func TestEnricherZeroSunDistanceWarnsOnceUnderConcurrency(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEnricher(testArray(), zap.New(core).Sugar())
	e.FillSunDistance = false

	// Sources behind an event-driven listener enrich from multiple event
	// loops against one shared enricher
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r := types.ArrayReading{
					Timestamp:  time.Now(),
					SunVectorX: 1,
				}
				e.Enrich(&r)
			}
		}()
	}
	wg.Wait()

	if got := logs.Len(); got != 1 {
		t.Errorf("zero sun distance warned %d times, want exactly once", got)
	}
}

func TestEnricherNegativePowerNotClamped(t *testing.T) {
	e := newTestEnricher(t)
	e.FillSunDistance = false

	// Sun vector pointing away from the panel normal: 180° incidence
	r := types.ArrayReading{
		SunDistanceAU: 1,
		SunVectorX:    -1,
	}
	e.Enrich(&r)

	if r.PredictedPower >= 0 {
		t.Errorf("back-lit panel should predict negative power, got %v", r.PredictedPower)
	}
}
