// Package timescaledb implements the TimescaleDB storage backend: a
// hypertable of raw telemetry plus continuous aggregates the REST layer
// queries for span data.
package timescaledb

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrayops/remotearray/internal/database"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/storage"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"gorm.io/gorm"
)

// Storage holds the connection for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// StartStorageEngine creates a goroutine loop to receive readings and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.ArrayReading {
	log.Info("starting TimescaleDB storage engine...")
	readingChan := make(chan types.ArrayReading, 10)
	go storage.ProcessReadings(ctx, wg, readingChan, t.StoreReading, "timescaledb")
	return readingChan
}

// StoreReading stores a reading in TimescaleDB
func (t *Storage) StoreReading(r types.ArrayReading) error {
	err := t.TimescaleDBConn.Create(&r).Error
	if err != nil {
		return fmt.Errorf("could not store reading: %v", err)
	}
	return nil
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, c *config.TimescaleDBData) (*Storage, error) {
	var err error
	t := Storage{}

	t.TimescaleDBConn, err = database.CreateConnection(c.ConnectionString)
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return &Storage{}, err
	}

	// Create the telemetry table
	log.Info("creating telemetry table...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createTableSQL).Error
	if err != nil {
		log.Warn("warning: could not create table in database")
		return &Storage{}, err
	}

	// Create the TimescaleDB extension
	log.Info("creating TimescaleDB extension...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createExtensionSQL).Error
	if err != nil {
		log.Warn("warning: could not create TimescaleDB extension")
		return &Storage{}, err
	}

	// Create the hypertable
	log.Info("creating hypertable...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(createHypertableSQL).Error
	if err != nil {
		log.Warn("warning: could not create hypertable")
		return &Storage{}, err
	}

	// Create the 1m view
	log.Info("creating 1m view...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(create1mViewSQL).Error
	if err != nil {
		log.Warn("warning: could not create 1m view")
		return &Storage{}, err
	}

	// Create the 1h view
	log.Info("creating 1h view...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(create1hViewSQL).Error
	if err != nil {
		log.Warn("warning: could not create 1h view")
		return &Storage{}, err
	}

	// Add the 1m aggregation policy
	log.Info("adding 1m aggregation policy...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(addAggregationPolicy1mSQL).Error
	if err != nil {
		log.Warn("warning: could not add 1m aggregation policy")
		return &Storage{}, err
	}

	// Add the 1h aggregation policy
	log.Info("adding 1h aggregation policy...")
	err = t.TimescaleDBConn.WithContext(ctx).Exec(addAggregationPolicy1hSQL).Error
	if err != nil {
		log.Warn("warning: could not add 1h aggregation policy")
		return &Storage{}, err
	}

	return &t, nil
}
