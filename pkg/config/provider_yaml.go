package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Arrays      []ArrayYAML      `yaml:"arrays"`
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Arrays:      make([]ArrayData, len(yamlConfig.Arrays)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	// Convert arrays
	for i, array := range yamlConfig.Arrays {
		config.Arrays[i] = ArrayData{
			ID:           array.ID,
			Name:         array.Name,
			Type:         array.Type,
			Hostname:     array.Hostname,
			Port:         array.Port,
			SerialDevice: array.SerialDevice,
			Baud:         array.Baud,
			Panel: PanelData{
				Area:          array.Panel.Area,
				Efficiency:    array.Panel.Efficiency,
				Absorptivity:  array.Panel.Absorptivity,
				Emissivity:    array.Panel.Emissivity,
				SolarConstant: array.Panel.SolarConstant,
				NormalX:       array.Panel.NormalX,
				NormalY:       array.Panel.NormalY,
				NormalZ:       array.Panel.NormalZ,
			},
		}
	}

	// Convert storage
	config.Storage = StorageData{}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path:          yamlConfig.Storage.SQLite.Path,
			RetentionDays: yamlConfig.Storage.SQLite.RetentionDays,
		}
	}

	// Convert controllers
	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:         controller.RESTServer.Cert,
				Key:          controller.RESTServer.Key,
				Port:         controller.RESTServer.Port,
				ListenAddr:   controller.RESTServer.ListenAddr,
				DefaultArray: controller.RESTServer.DefaultArray,
			}
		}

		if controller.Reporting != nil {
			config.Controllers[i].Reporting = &ReportingData{
				FleetID:        controller.Reporting.FleetID,
				APIKey:         controller.Reporting.APIKey,
				APIEndpoint:    controller.Reporting.APIEndpoint,
				UploadInterval: controller.Reporting.UploadInterval,
				PullFromArray:  controller.Reporting.PullFromArray,
			}
		}

		if controller.SpaceWeather != nil {
			config.Controllers[i].SpaceWeather = &SpaceWeatherData{
				APIEndpoint: controller.SpaceWeather.APIEndpoint,
				APIKey:      controller.SpaceWeather.APIKey,
			}
		}
	}

	y.config = config
	return config, nil
}

// GetArrays returns array configurations
func (y *YAMLProvider) GetArrays() ([]ArrayData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Arrays, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the file format
type ArrayYAML struct {
	ID           string    `yaml:"id,omitempty"`
	Name         string    `yaml:"name"`
	Type         string    `yaml:"type,omitempty"`
	Hostname     string    `yaml:"hostname,omitempty"`
	Port         string    `yaml:"port,omitempty"`
	SerialDevice string    `yaml:"serialdevice,omitempty"`
	Baud         int       `yaml:"baud,omitempty"`
	Panel        PanelYAML `yaml:"panel,omitempty"`
}

type PanelYAML struct {
	Area          float64 `yaml:"area"`
	Efficiency    float64 `yaml:"efficiency,omitempty"`
	Absorptivity  float64 `yaml:"absorptivity,omitempty"`
	Emissivity    float64 `yaml:"emissivity,omitempty"`
	SolarConstant float64 `yaml:"solar-constant,omitempty"`
	NormalX       float64 `yaml:"normal-x,omitempty"`
	NormalY       float64 `yaml:"normal-y,omitempty"`
	NormalZ       float64 `yaml:"normal-z,omitempty"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type SQLiteYAML struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention-days,omitempty"`
}

type ControllerYAML struct {
	Type         string            `yaml:"type,omitempty"`
	RESTServer   *RESTServerYAML   `yaml:"rest,omitempty"`
	Reporting    *ReportingYAML    `yaml:"reporting,omitempty"`
	SpaceWeather *SpaceWeatherYAML `yaml:"spaceweather,omitempty"`
}

type RESTServerYAML struct {
	Cert         string `yaml:"cert,omitempty"`
	Key          string `yaml:"key,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	ListenAddr   string `yaml:"listen-addr,omitempty"`
	DefaultArray string `yaml:"default-array,omitempty"`
}

type ReportingYAML struct {
	FleetID        string `yaml:"fleet-id,omitempty"`
	APIKey         string `yaml:"api-key,omitempty"`
	APIEndpoint    string `yaml:"api-endpoint,omitempty"`
	UploadInterval string `yaml:"upload-interval,omitempty"`
	PullFromArray  string `yaml:"pull-from-array,omitempty"`
}

type SpaceWeatherYAML struct {
	APIEndpoint string `yaml:"api-endpoint,omitempty"`
	APIKey      string `yaml:"api-key,omitempty"`
}
