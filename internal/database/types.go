package database

import "time"

// FetchedBucketReading represents an aggregate telemetry row fetched from the
// one-minute materialized view
type FetchedBucketReading struct {
	Bucket              *time.Time `gorm:"column:bucket"`
	ArrayName           string     `gorm:"column:arrayname"`
	BusVoltage          float32    `gorm:"column:busvoltage"`
	MaxBusVoltage       float32    `gorm:"column:max_busvoltage"`
	MinBusVoltage       float32    `gorm:"column:min_busvoltage"`
	BusCurrent          float32    `gorm:"column:buscurrent"`
	MaxBusCurrent       float32    `gorm:"column:max_buscurrent"`
	MinBusCurrent       float32    `gorm:"column:min_buscurrent"`
	OutputPower         float32    `gorm:"column:outputpower"`
	MaxOutputPower      float32    `gorm:"column:max_outputpower"`
	MinOutputPower      float32    `gorm:"column:min_outputpower"`
	PanelTemp           float32    `gorm:"column:paneltemp"`
	MaxPanelTemp        float32    `gorm:"column:max_paneltemp"`
	MinPanelTemp        float32    `gorm:"column:min_paneltemp"`
	SunDistanceAU       float32    `gorm:"column:sundistanceau"`
	IncidenceAngle      float32    `gorm:"column:incidenceangle"`
	PredictedPower      float32    `gorm:"column:predictedpower"`
	EquilibriumTemp     float32    `gorm:"column:equilibriumtemp"`
	PerformanceRatio    float32    `gorm:"column:performanceratio"`
	MinPerformanceRatio float32    `gorm:"column:min_performanceratio"`
	PeriodEnergy        float32    `gorm:"column:period_energy"`
}

// TableName implements the Tabler interface for the FetchedBucketReading struct
func (FetchedBucketReading) TableName() string {
	return "telemetry_1m"
}
