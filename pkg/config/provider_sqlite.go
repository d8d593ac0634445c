package config

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// DB exposes the underlying database handle for migration tooling
func (s *SQLiteProvider) DB() *sql.DB {
	return s.db
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	arrays, err := s.GetArrays()
	if err != nil {
		return nil, fmt.Errorf("failed to load arrays: %w", err)
	}
	config.Arrays = arrays

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetArrays returns array configurations from the database
func (s *SQLiteProvider) GetArrays() ([]ArrayData, error) {
	query := `
		SELECT array_id, name, type, hostname, port, serial_device, baud,
		       panel_area, panel_efficiency, panel_absorptivity,
		       panel_emissivity, solar_constant, normal_x, normal_y, normal_z
		FROM arrays
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query arrays: %w", err)
	}
	defer rows.Close()

	var arrays []ArrayData
	for rows.Next() {
		var array ArrayData
		var arrayID, hostname, port, serialDevice sql.NullString
		var baud sql.NullInt64
		var area, efficiency, absorptivity, emissivity sql.NullFloat64
		var solarConstant, normalX, normalY, normalZ sql.NullFloat64

		err := rows.Scan(
			&arrayID, &array.Name, &array.Type, &hostname, &port,
			&serialDevice, &baud, &area, &efficiency, &absorptivity,
			&emissivity, &solarConstant, &normalX, &normalY, &normalZ,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan array row: %w", err)
		}

		if arrayID.Valid {
			array.ID = arrayID.String
		}
		if hostname.Valid {
			array.Hostname = hostname.String
		}
		if port.Valid {
			array.Port = port.String
		}
		if serialDevice.Valid {
			array.SerialDevice = serialDevice.String
		}
		if baud.Valid {
			array.Baud = int(baud.Int64)
		}

		array.Panel = PanelData{
			Area:          area.Float64,
			Efficiency:    efficiency.Float64,
			Absorptivity:  absorptivity.Float64,
			Emissivity:    emissivity.Float64,
			SolarConstant: solarConstant.Float64,
			NormalX:       normalX.Float64,
			NormalY:       normalY.Float64,
			NormalZ:       normalZ.Float64,
		}

		arrays = append(arrays, array)
	}

	return arrays, nil
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	query := `
		SELECT backend_type, connection_string, path, retention_days
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var connectionString, path sql.NullString
		var retentionDays sql.NullInt64

		if err := rows.Scan(&backendType, &connectionString, &path, &retentionDays); err != nil {
			return nil, fmt.Errorf("failed to scan storage row: %w", err)
		}

		switch backendType {
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{
				ConnectionString: connectionString.String,
			}
		case "sqlite":
			storage.SQLite = &SQLiteData{
				Path:          path.String,
				RetentionDays: int(retentionDays.Int64),
			}
		}
	}

	return storage, nil
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT controller_type, listen_addr, port, cert, key, default_array,
		       fleet_id, api_key, api_endpoint, upload_interval, pull_from_array
		FROM controllers
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controllerType string
		var listenAddr, cert, key, defaultArray sql.NullString
		var fleetID, apiKey, apiEndpoint, uploadInterval, pullFromArray sql.NullString
		var port sql.NullInt64

		err := rows.Scan(
			&controllerType, &listenAddr, &port, &cert, &key, &defaultArray,
			&fleetID, &apiKey, &apiEndpoint, &uploadInterval, &pullFromArray,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		controller := ControllerData{Type: controllerType}

		switch controllerType {
		case "rest":
			controller.RESTServer = &RESTServerData{
				Cert:         cert.String,
				Key:          key.String,
				Port:         int(port.Int64),
				ListenAddr:   listenAddr.String,
				DefaultArray: defaultArray.String,
			}
		case "reporting":
			controller.Reporting = &ReportingData{
				FleetID:        fleetID.String,
				APIKey:         apiKey.String,
				APIEndpoint:    apiEndpoint.String,
				UploadInterval: uploadInterval.String,
				PullFromArray:  pullFromArray.String,
			}
		case "spaceweather":
			controller.SpaceWeather = &SpaceWeatherData{
				APIEndpoint: apiEndpoint.String,
				APIKey:      apiKey.String,
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, nil
}

// IsReadOnly returns false since SQLite configurations are managed in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig persists a complete configuration, replacing any existing one
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return err
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return err
	}

	for i := range configData.Arrays {
		if err := s.insertArray(tx, configID, &configData.Arrays[i]); err != nil {
			return err
		}
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return err
	}

	for i := range configData.Controllers {
		if err := s.insertController(tx, configID, &configData.Controllers[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	for _, table := range []string{"arrays", "storage_configs", "controllers"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE config_id = ?", table)
		if _, err := tx.Exec(query, configID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertArray(tx *sql.Tx, configID int64, array *ArrayData) error {
	if array.ID == "" {
		array.ID = uuid.New().String()
	}

	_, err := tx.Exec(`
		INSERT INTO arrays (config_id, array_id, name, type, hostname, port,
		                    serial_device, baud, panel_area, panel_efficiency,
		                    panel_absorptivity, panel_emissivity, solar_constant,
		                    normal_x, normal_y, normal_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		configID, array.ID, array.Name, array.Type,
		nullString(array.Hostname), nullString(array.Port),
		nullString(array.SerialDevice), array.Baud,
		array.Panel.Area, array.Panel.Efficiency,
		array.Panel.Absorptivity, array.Panel.Emissivity,
		array.Panel.SolarConstant,
		array.Panel.NormalX, array.Panel.NormalY, array.Panel.NormalZ,
	)
	if err != nil {
		return fmt.Errorf("failed to insert array %s: %w", array.Name, err)
	}
	return nil
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	if storage.TimescaleDB != nil {
		_, err := tx.Exec(`
			INSERT INTO storage_configs (config_id, backend_type, connection_string)
			VALUES (?, 'timescaledb', ?)`,
			configID, storage.TimescaleDB.ConnectionString,
		)
		if err != nil {
			return fmt.Errorf("failed to insert timescaledb storage config: %w", err)
		}
	}

	if storage.SQLite != nil {
		_, err := tx.Exec(`
			INSERT INTO storage_configs (config_id, backend_type, path, retention_days)
			VALUES (?, 'sqlite', ?, ?)`,
			configID, storage.SQLite.Path, storage.SQLite.RetentionDays,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sqlite storage config: %w", err)
		}
	}

	return nil
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	switch {
	case controller.RESTServer != nil:
		_, err := tx.Exec(`
			INSERT INTO controllers (config_id, controller_type, listen_addr,
			                         port, cert, key, default_array)
			VALUES (?, 'rest', ?, ?, ?, ?, ?)`,
			configID, nullString(controller.RESTServer.ListenAddr),
			controller.RESTServer.Port,
			nullString(controller.RESTServer.Cert),
			nullString(controller.RESTServer.Key),
			nullString(controller.RESTServer.DefaultArray),
		)
		if err != nil {
			return fmt.Errorf("failed to insert rest controller: %w", err)
		}
	case controller.Reporting != nil:
		_, err := tx.Exec(`
			INSERT INTO controllers (config_id, controller_type, fleet_id,
			                         api_key, api_endpoint, upload_interval,
			                         pull_from_array)
			VALUES (?, 'reporting', ?, ?, ?, ?, ?)`,
			configID, nullString(controller.Reporting.FleetID),
			nullString(controller.Reporting.APIKey),
			nullString(controller.Reporting.APIEndpoint),
			nullString(controller.Reporting.UploadInterval),
			nullString(controller.Reporting.PullFromArray),
		)
		if err != nil {
			return fmt.Errorf("failed to insert reporting controller: %w", err)
		}
	case controller.SpaceWeather != nil:
		_, err := tx.Exec(`
			INSERT INTO controllers (config_id, controller_type, api_endpoint,
			                         api_key)
			VALUES (?, 'spaceweather', ?, ?)`,
			configID, nullString(controller.SpaceWeather.APIEndpoint),
			nullString(controller.SpaceWeather.APIKey),
		)
		if err != nil {
			return fmt.Errorf("failed to insert spaceweather controller: %w", err)
		}
	}
	return nil
}

// GetArray returns a single array configuration by name
func (s *SQLiteProvider) GetArray(name string) (*ArrayData, error) {
	arrays, err := s.GetArrays()
	if err != nil {
		return nil, err
	}

	for i := range arrays {
		if arrays[i].Name == name {
			return &arrays[i], nil
		}
	}

	return nil, fmt.Errorf("array %s not found", name)
}

// AddArray adds a new array configuration, assigning an ID when absent
func (s *SQLiteProvider) AddArray(array *ArrayData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return err
	}

	if err := s.insertArray(tx, configID, array); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateArray replaces the configuration of the named array
func (s *SQLiteProvider) UpdateArray(name string, array *ArrayData) error {
	result, err := s.db.Exec(`
		UPDATE arrays
		SET name = ?, type = ?, hostname = ?, port = ?, serial_device = ?,
		    baud = ?, panel_area = ?, panel_efficiency = ?,
		    panel_absorptivity = ?, panel_emissivity = ?, solar_constant = ?,
		    normal_x = ?, normal_y = ?, normal_z = ?
		WHERE name = ?
		  AND config_id = (SELECT id FROM configs WHERE name = 'default')`,
		array.Name, array.Type, nullString(array.Hostname),
		nullString(array.Port), nullString(array.SerialDevice), array.Baud,
		array.Panel.Area, array.Panel.Efficiency, array.Panel.Absorptivity,
		array.Panel.Emissivity, array.Panel.SolarConstant,
		array.Panel.NormalX, array.Panel.NormalY, array.Panel.NormalZ,
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to update array %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("array %s not found", name)
	}

	return nil
}

// DeleteArray removes the named array configuration
func (s *SQLiteProvider) DeleteArray(name string) error {
	result, err := s.db.Exec(`
		DELETE FROM arrays
		WHERE name = ?
		  AND config_id = (SELECT id FROM configs WHERE name = 'default')`,
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to delete array %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("array %s not found", name)
	}

	return nil
}

func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	var configID int64
	err := tx.QueryRow("SELECT id FROM configs WHERE name = 'default'").Scan(&configID)
	if err == sql.ErrNoRows {
		result, err := tx.Exec("INSERT INTO configs (name) VALUES ('default')")
		if err != nil {
			return 0, fmt.Errorf("failed to create default config: %w", err)
		}
		return result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up default config: %w", err)
	}
	return configID, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
