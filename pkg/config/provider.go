package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetArrays() ([]ArrayData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management (SQLite-backed deployments can write)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Arrays      []ArrayData      `json:"arrays"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// ArrayData holds configuration for one telemetered solar array
type ArrayData struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Hostname     string    `json:"hostname,omitempty"`
	Port         string    `json:"port,omitempty"`
	SerialDevice string    `json:"serial_device,omitempty"`
	Baud         int       `json:"baud,omitempty"`
	Panel        PanelData `json:"panel,omitempty"`
}

// PanelData holds the physical panel properties the enrichment model needs.
// Zero fields fall back to the solarpanel package defaults.
type PanelData struct {
	Area          float64 `json:"area"`
	Efficiency    float64 `json:"efficiency,omitempty"`
	Absorptivity  float64 `json:"absorptivity,omitempty"`
	Emissivity    float64 `json:"emissivity,omitempty"`
	SolarConstant float64 `json:"solar_constant,omitempty"`
	NormalX       float64 `json:"normal_x,omitempty"`
	NormalY       float64 `json:"normal_y,omitempty"`
	NormalZ       float64 `json:"normal_z,omitempty"`
}

// Normal returns the configured panel normal as a slice for vector math.
func (p PanelData) Normal() []float64 {
	return []float64{p.NormalX, p.NormalY, p.NormalZ}
}

// StorageData holds the configuration for various storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type         string            `json:"type,omitempty"`
	RESTServer   *RESTServerData   `json:"rest,omitempty"`
	Reporting    *ReportingData    `json:"reporting,omitempty"`
	SpaceWeather *SpaceWeatherData `json:"spaceweather,omitempty"`
}

// Storage backend configuration structs
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type SQLiteData struct {
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days,omitempty"`
}

// Controller configuration structs
type RESTServerData struct {
	Cert         string `json:"cert,omitempty"`
	Key          string `json:"key,omitempty"`
	Port         int    `json:"port,omitempty"`
	ListenAddr   string `json:"listen_addr,omitempty"`
	DefaultArray string `json:"default_array,omitempty"`
}

type ReportingData struct {
	FleetID        string `json:"fleet_id,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	APIEndpoint    string `json:"api_endpoint,omitempty"`
	UploadInterval string `json:"upload_interval,omitempty"`
	PullFromArray  string `json:"pull_from_array,omitempty"`
}

type SpaceWeatherData struct {
	APIEndpoint string `json:"api_endpoint,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
}
