// Package managers wires the configured sources, storage engines, and
// controllers together and owns their lifecycles.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrayops/remotearray/internal/storage"
	"github.com/arrayops/remotearray/internal/storage/sqlite"
	"github.com/arrayops/remotearray/internal/storage/timescaledb"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines            []StorageEngine
	ReadingDistributor chan types.ArrayReading
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing readings to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.ArrayReading
}

// NewStorageManager creates a StorageManager object, populated with all
// configured storage engines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	s := StorageManager{}

	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %v", err)
	}

	// Initialize our channel for passing readings to the distributor
	s.ReadingDistributor = make(chan types.ArrayReading, 20)

	// Start our reading distributor to fan received readings out to the
	// storage backends
	go s.startReadingDistributor(ctx, wg)

	// Check the configuration for supported storage backends and enable
	// them if found

	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, storageConfig.TimescaleDB)
		if err != nil {
			return &s, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
		s.AddEngine(ctx, wg, engine)
	}

	if storageConfig.SQLite != nil && storageConfig.SQLite.Path != "" {
		engine, err := sqlite.New(storageConfig.SQLite)
		if err != nil {
			return &s, fmt.Errorf("could not add SQLite storage backend: %v", err)
		}
		s.AddEngine(ctx, wg, engine)
	}

	return &s, nil
}

// GetReadingDistributor returns the reading distributor channel
func (s *StorageManager) GetReadingDistributor() chan types.ArrayReading {
	return s.ReadingDistributor
}

// AddEngine starts a storage engine and registers its channel for fan-out
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engine storage.StorageEngineInterface) {
	se := StorageEngine{Engine: engine}
	se.C = se.Engine.StartStorageEngine(ctx, wg)
	s.Engines = append(s.Engines, se)
}

// startReadingDistributor receives readings from sources and fans them out
// to the various storage backends
func (s *StorageManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-s.ReadingDistributor:
			// No storage engines configured means the reading is
			// discarded silently
			for _, e := range s.Engines {
				e.C <- r
			}
		case <-ctx.Done():
			return
		}
	}
}
