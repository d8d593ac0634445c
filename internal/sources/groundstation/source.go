// Package groundstation implements a telemetry source that pulls array
// readings from a ground station gateway over TCP. The gateway speaks
// length-prefixed msgpack frames, one ArrayReading per frame.
package groundstation

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"context"

	"github.com/arrayops/remotearray/internal/enrichment"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/sources"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"go.uber.org/zap"
)

// Source holds our ground station connection along with some mutexes for
// operation
type Source struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	netConn            net.Conn
	reader             *bufio.Reader
	config             config.ArrayData
	enricher           *enrichment.Enricher
	ReadingDistributor chan types.ArrayReading
	logger             *zap.SugaredLogger
	connecting         bool
	connectingMu       sync.RWMutex
	connected          bool
	connectedMu        sync.RWMutex
}

// NewSource creates a ground station source for one configured array.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, arrayName string, distributor chan types.ArrayReading, logger *zap.SugaredLogger) (sources.TelemetrySource, error) {
	arrayConfig, err := sources.LoadArrayConfig(configProvider, arrayName)
	if err != nil {
		return nil, err
	}

	if arrayConfig.Hostname == "" || arrayConfig.Port == "" {
		return nil, fmt.Errorf("ground station [%s] must define a hostname and port", arrayName)
	}

	return &Source{
		ctx:                ctx,
		wg:                 wg,
		config:             *arrayConfig,
		enricher:           enrichment.NewEnricher(*arrayConfig, logger),
		ReadingDistributor: distributor,
		logger:             logger,
	}, nil
}

func (s *Source) SourceName() string {
	return s.config.Name
}

// StartTelemetrySource connects to the gateway and launches the frame-reading
// goroutine
func (s *Source) StartTelemetrySource() error {
	log.Infof("Starting ground station source [%v]...", s.config.Name)

	s.wg.Add(1)
	go s.GetTelemetryFrames()

	return nil
}

// GetTelemetryFrames reads frames off the gateway connection until
// cancellation, reconnecting whenever the stream fails
func (s *Source) GetTelemetryFrames() {
	defer s.wg.Done()
	log.Info("starting ground station frame getter")
	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling GetTelemetryFrames()")
			return
		default:
			err := s.streamFrames()
			if err != nil {
				s.logger.Error(err)
				if s.netConn != nil {
					s.netConn.Close()
				}
				s.logger.Info("attempting to reconnect...")
				s.Connect()
			} else {
				return
			}
		}
	}
}

// streamFrames reads and distributes frames until the connection errors
func (s *Source) streamFrames() error {
	if !s.isConnected() {
		s.Connect()
		if !s.isConnected() {
			// Connect only returns unconnected on cancellation
			return nil
		}
	}

	for {
		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		s.netConn.SetReadDeadline(time.Now().Add(90 * time.Second))

		r, err := sources.ReadFrame(s.reader)
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("ground station [%s] closed the connection", s.config.Name)
			}
			return fmt.Errorf("error reading frame from ground station [%s]: %v", s.config.Name, err)
		}

		if r.Timestamp.IsZero() {
			r.Timestamp = time.Now()
		}
		r.ArrayName = s.config.Name
		r.ArrayType = "groundstation"

		s.enricher.Enrich(r)

		monitoring.ReadingsReceived.WithLabelValues(s.config.Name).Inc()
		log.Debugf("ground station [%s] sending reading to distributor: power=%.1fW, predicted=%.1fW",
			s.config.Name, r.OutputPower, r.PredictedPower)
		s.ReadingDistributor <- *r
	}
}

// Connect dials the ground station gateway, retrying every 30 seconds until
// it succeeds or the context is cancelled
func (s *Source) Connect() {
	console := fmt.Sprint(s.config.Hostname, ":", s.config.Port)

	s.connectingMu.RLock()
	if s.connecting {
		s.connectingMu.RUnlock()
		log.Info("skipping reconnect since a connection attempt is already in progress")
		return
	}

	s.connectingMu.RUnlock()
	s.connectingMu.Lock()
	s.connecting = true
	s.connectingMu.Unlock()

	log.Info("connecting to:", console)

	for {
		var err error
		s.netConn, err = net.DialTimeout("tcp", console, 10*time.Second)

		if err != nil {
			log.Errorf("could not connect to %v: %v", console, err)
			log.Error("sleeping 30 seconds and trying again.")

			select {
			case <-s.ctx.Done():
				s.logger.Info("cancellation request received during retry wait")
				s.connectingMu.Lock()
				s.connecting = false
				s.connectingMu.Unlock()
				return
			case <-time.After(30 * time.Second):
				// Continue to next iteration
			}
		} else {
			s.reader = bufio.NewReader(s.netConn)

			s.connectedMu.Lock()
			s.connected = true
			s.connectedMu.Unlock()
			s.connectingMu.Lock()
			s.connecting = false
			s.connectingMu.Unlock()

			return
		}
	}
}

func (s *Source) isConnected() bool {
	s.connectedMu.RLock()
	defer s.connectedMu.RUnlock()
	return s.connected
}
