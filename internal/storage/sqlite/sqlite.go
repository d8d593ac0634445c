// Package sqlite implements a file-backed storage engine for single-node
// deployments that do not run TimescaleDB. Readings are inserted into one
// flat table and pruned on a daily cycle once they age past the configured
// retention window.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/storage"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	_ "modernc.org/sqlite"
)

const defaultRetentionDays = 90

const createTableSQL = `
CREATE TABLE IF NOT EXISTS telemetry (
    time DATETIME NOT NULL,
    arrayname TEXT,
    arraytype TEXT,
    busvoltage REAL,
    buscurrent REAL,
    outputpower REAL,
    stringcurrent1 REAL,
    stringcurrent2 REAL,
    stringcurrent3 REAL,
    stringcurrent4 REAL,
    paneltemp REAL,
    driveangle REAL,
    sundistanceau REAL,
    incidenceangle REAL,
    eclipse INTEGER,
    predictedpower REAL,
    equilibriumtemp REAL,
    performanceratio REAL
);
CREATE INDEX IF NOT EXISTS idx_telemetry_time ON telemetry(time);
CREATE INDEX IF NOT EXISTS idx_telemetry_array ON telemetry(arrayname, time);
`

const insertReadingSQL = `
INSERT INTO telemetry (
    time, arrayname, arraytype, busvoltage, buscurrent, outputpower,
    stringcurrent1, stringcurrent2, stringcurrent3, stringcurrent4,
    paneltemp, driveangle, sundistanceau, incidenceangle, eclipse,
    predictedpower, equilibriumtemp, performanceratio
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Storage holds the connection for a SQLite storage backend
type Storage struct {
	db            *sql.DB
	retentionDays int
}

// New sets up a new SQLite storage backend
func New(c *config.SQLiteData) (*Storage, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("SQLite storage requires a database path")
	}

	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database %s: %v", c.Path, err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create telemetry table: %v", err)
	}

	retention := c.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	log.Infof("SQLite storage engine using %s, %d day retention", c.Path, retention)
	return &Storage{db: db, retentionDays: retention}, nil
}

// StartStorageEngine creates a goroutine loop to receive readings and insert
// them, plus a daily pruning cycle for expired rows
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.ArrayReading {
	log.Info("starting SQLite storage engine...")
	readingChan := make(chan types.ArrayReading, 10)
	go storage.ProcessReadings(ctx, wg, readingChan, s.StoreReading, "sqlite")
	go s.pruneLoop(ctx, wg)
	return readingChan
}

// StoreReading inserts a reading into the telemetry table
func (s *Storage) StoreReading(r types.ArrayReading) error {
	_, err := s.db.Exec(insertReadingSQL,
		r.Timestamp, r.ArrayName, r.ArrayType, r.BusVoltage, r.BusCurrent, r.OutputPower,
		r.StringCurrent1, r.StringCurrent2, r.StringCurrent3, r.StringCurrent4,
		r.PanelTemp, r.DriveAngle, r.SunDistanceAU, r.IncidenceAngle, r.Eclipse,
		r.PredictedPower, r.EquilibriumTemp, r.PerformanceRatio,
	)
	if err != nil {
		return fmt.Errorf("could not store reading: %v", err)
	}
	return nil
}

// pruneLoop deletes rows older than the retention window, once at startup
// and then daily
func (s *Storage) pruneLoop(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.prune()

	for {
		select {
		case <-ticker.C:
			s.prune()
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling SQLite pruner.")
			s.db.Close()
			return
		}
	}
}

func (s *Storage) prune() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	res, err := s.db.Exec("DELETE FROM telemetry WHERE time < ?", cutoff)
	if err != nil {
		log.Errorf("SQLite pruning failed: %v", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Infof("pruned %d telemetry rows older than %d days", n, s.retentionDays)
	}
}
