package types

import (
	"time"
)

// ArrayReading is one telemetry sample from a solar array, containing the
// raw electrical and attitude measurements plus the model-derived fields the
// enrichment stage fills in. New TelemetrySource implementations should map
// onto the existing members where possible and add new ones only when
// nothing here fits.
type ArrayReading struct {
	Timestamp        time.Time `gorm:"column:time"`
	ArrayName        string    `gorm:"column:arrayname"`
	ArrayType        string    `gorm:"column:arraytype"`
	BusVoltage       float32   `gorm:"column:busvoltage"`
	BusCurrent       float32   `gorm:"column:buscurrent"`
	OutputPower      float32   `gorm:"column:outputpower"`
	StringCurrent1   float32   `gorm:"column:stringcurrent1"`
	StringCurrent2   float32   `gorm:"column:stringcurrent2"`
	StringCurrent3   float32   `gorm:"column:stringcurrent3"`
	StringCurrent4   float32   `gorm:"column:stringcurrent4"`
	PanelTemp        float32   `gorm:"column:paneltemp"`
	DriveAngle       float32   `gorm:"column:driveangle"`
	SunVectorX       float32   `gorm:"column:sunvectorx"`
	SunVectorY       float32   `gorm:"column:sunvectory"`
	SunVectorZ       float32   `gorm:"column:sunvectorz"`
	PanelNormalX     float32   `gorm:"column:panelnormalx"`
	PanelNormalY     float32   `gorm:"column:panelnormaly"`
	PanelNormalZ     float32   `gorm:"column:panelnormalz"`
	SunDistanceAU    float32   `gorm:"column:sundistanceau"`
	IncidenceAngle   float32   `gorm:"column:incidenceangle"`
	Eclipse          bool      `gorm:"column:eclipse"`
	PredictedPower   float32   `gorm:"column:predictedpower"`
	EquilibriumTemp  float32   `gorm:"column:equilibriumtemp"`
	PerformanceRatio float32   `gorm:"column:performanceratio"`
}

// SunVector returns the measured sun vector as a slice for vector math.
func (r *ArrayReading) SunVector() []float64 {
	return []float64{float64(r.SunVectorX), float64(r.SunVectorY), float64(r.SunVectorZ)}
}

// PanelNormal returns the panel normal as a slice for vector math.
func (r *ArrayReading) PanelNormal() []float64 {
	return []float64{float64(r.PanelNormalX), float64(r.PanelNormalY), float64(r.PanelNormalZ)}
}

// TableName implements the GORM Tabler interface for the ArrayReading struct
func (ArrayReading) TableName() string {
	return "telemetry"
}

// BucketReading is an ArrayReading with the extra fields present in the
// aggregate materialized views
type BucketReading struct {
	Bucket              time.Time `gorm:"column:bucket"`
	PeriodEnergy        float32   `gorm:"column:period_energy"`
	MaxOutputPower      float32   `gorm:"column:max_outputpower"`
	MinOutputPower      float32   `gorm:"column:min_outputpower"`
	MaxPanelTemp        float32   `gorm:"column:max_paneltemp"`
	MinPanelTemp        float32   `gorm:"column:min_paneltemp"`
	MinPerformanceRatio float32   `gorm:"column:min_performanceratio"`
	ArrayReading
}
