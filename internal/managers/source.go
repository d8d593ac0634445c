package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/sources"
	"github.com/arrayops/remotearray/internal/sources/groundstation"
	"github.com/arrayops/remotearray/internal/sources/receiver"
	"github.com/arrayops/remotearray/internal/sources/testbench"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"go.uber.org/zap"
)

// SourceManager starts and tracks the configured telemetry sources
type SourceManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	distributor    chan types.ArrayReading
	logger         *zap.SugaredLogger
	sources        map[string]sources.TelemetrySource
	mu             sync.RWMutex
}

// NewSourceManager creates a SourceManager object, populated with one source
// per configured array
func NewSourceManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.ArrayReading, logger *zap.SugaredLogger) (*SourceManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	sm := &SourceManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		distributor:    distributor,
		logger:         logger,
		sources:        make(map[string]sources.TelemetrySource),
	}

	for _, arrayConfig := range cfgData.Arrays {
		source, err := sm.createSourceFromConfig(arrayConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating telemetry source [%s]: %w", arrayConfig.Name, err)
		}
		sm.sources[arrayConfig.Name] = source
	}

	return sm, nil
}

// StartTelemetrySources starts every configured source
func (sm *SourceManager) StartTelemetrySources() error {
	for name, source := range sm.sources {
		sm.logger.Infof("Starting telemetry source [%v]...", name)
		if err := source.StartTelemetrySource(); err != nil {
			return fmt.Errorf("failed to start telemetry source [%s]: %w", name, err)
		}
		monitoring.SourcesActive.Inc()
	}
	return nil
}

// GetSource retrieves a telemetry source by array name. Returns nil if the
// source does not exist. Safe for concurrent use.
func (sm *SourceManager) GetSource(arrayName string) sources.TelemetrySource {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sources[arrayName]
}

// createSourceFromConfig creates the appropriate source backend for an array
func (sm *SourceManager) createSourceFromConfig(arrayConfig config.ArrayData) (sources.TelemetrySource, error) {
	switch arrayConfig.Type {
	case "groundstation":
		log.Infof("Initializing ground station source [%v]", arrayConfig.Name)
		return groundstation.NewSource(sm.ctx, sm.wg, sm.configProvider, arrayConfig.Name, sm.distributor, sm.logger)
	case "testbench":
		log.Infof("Initializing test bench source [%v]", arrayConfig.Name)
		return testbench.NewSource(sm.ctx, sm.wg, sm.configProvider, arrayConfig.Name, sm.distributor, sm.logger)
	case "receiver":
		log.Infof("Initializing push receiver source [%v]", arrayConfig.Name)
		return receiver.NewSource(sm.ctx, sm.wg, sm.configProvider, arrayConfig.Name, sm.distributor, sm.logger)
	default:
		return nil, fmt.Errorf("unknown telemetry source type: %s", arrayConfig.Type)
	}
}
