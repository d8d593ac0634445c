package storage

import (
	"context"
	"sync"

	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/types"
)

// ProcessReadings provides a standard pattern for processing readings from a channel
func ProcessReadings(ctx context.Context, wg *sync.WaitGroup, readingChan <-chan types.ArrayReading, processor func(types.ArrayReading) error, name string) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-readingChan:
			if err := processor(r); err != nil {
				log.Errorf("%s reading processor error: %v", name, err)
				monitoring.ReadingsDropped.WithLabelValues(name).Inc()
				monitoring.StorageHealthy.WithLabelValues(name).Set(0)
				continue
			}
			monitoring.ReadingsStored.WithLabelValues(name).Inc()
			monitoring.StorageHealthy.WithLabelValues(name).Set(1)
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s readings processor", name)
			return
		}
	}
}
