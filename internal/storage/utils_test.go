package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// waitForGauge polls an engine's health gauge until it reaches want or the
// deadline passes. ProcessReadings sets the gauge after the processor
// returns, so the test cannot read it synchronously.
func waitForGauge(t *testing.T, engine string, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(monitoring.StorageHealthy.WithLabelValues(engine)) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("storage health gauge for %s never reached %v", engine, want)
}

func TestProcessReadingsTracksStorageHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	fail := true
	processed := make(chan struct{}, 1)

	processor := func(r types.ArrayReading) error {
		defer func() { processed <- struct{}{} }()
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return errors.New("backend unavailable")
		}
		return nil
	}

	readingChan := make(chan types.ArrayReading)
	go ProcessReadings(ctx, &wg, readingChan, processor, "healthtest")

	readingChan <- types.ArrayReading{ArrayName: "array-a"}
	<-processed
	waitForGauge(t, "healthtest", 0)

	mu.Lock()
	fail = false
	mu.Unlock()

	readingChan <- types.ArrayReading{ArrayName: "array-a"}
	<-processed
	waitForGauge(t, "healthtest", 1)

	cancel()
	wg.Wait()
}
