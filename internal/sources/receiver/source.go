// Package receiver implements a telemetry source that remote agents push to:
// a TCP event server accepting the same length-prefixed msgpack frames the
// ground station gateway emits. One receiver serves any number of agents;
// frames carry the array name so readings are enriched per array.
package receiver

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/enrichment"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/sources"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"
)

const frameHeaderSize = 4

// Source is a gnet event server receiving pushed telemetry frames
type Source struct {
	gnet.BuiltinEventEngine

	ctx                context.Context
	wg                 *sync.WaitGroup
	eng                gnet.Engine
	config             config.ArrayData
	enrichers          map[string]*enrichment.Enricher
	enrichersMu        sync.RWMutex
	configProvider     config.ConfigProvider
	ReadingDistributor chan types.ArrayReading
	logger             *zap.SugaredLogger
}

// NewSource creates a push receiver listening on the configured port.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, arrayName string, distributor chan types.ArrayReading, logger *zap.SugaredLogger) (sources.TelemetrySource, error) {
	arrayConfig, err := sources.LoadArrayConfig(configProvider, arrayName)
	if err != nil {
		return nil, err
	}

	if arrayConfig.Port == "" {
		return nil, fmt.Errorf("receiver [%s] must define a listen port", arrayName)
	}

	return &Source{
		ctx:                ctx,
		wg:                 wg,
		config:             *arrayConfig,
		enrichers:          make(map[string]*enrichment.Enricher),
		configProvider:     configProvider,
		ReadingDistributor: distributor,
		logger:             logger,
	}, nil
}

func (s *Source) SourceName() string {
	return s.config.Name
}

// StartTelemetrySource launches the gnet event loop
func (s *Source) StartTelemetrySource() error {
	log.Infof("Starting push receiver [%v] on port %v...", s.config.Name, s.config.Port)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		addr := fmt.Sprintf("tcp://:%v", s.config.Port)
		err := gnet.Run(s, addr, gnet.WithMulticore(true), gnet.WithTCPKeepAlive(2*time.Minute))
		if err != nil {
			log.Errorf("push receiver [%s] event loop exited: %v", s.config.Name, err)
		}
	}()

	return nil
}

// OnBoot stores the engine handle and arranges shutdown on cancellation
func (s *Source) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng

	go func() {
		<-s.ctx.Done()
		log.Infof("cancellation request received. Stopping push receiver [%s]", s.config.Name)
		s.eng.Stop(context.Background())
	}()

	return gnet.None
}

// OnOpen logs new agent connections
func (s *Source) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	log.Debugf("push receiver [%s]: agent connected from %v", s.config.Name, c.RemoteAddr())
	return nil, gnet.None
}

// OnTraffic drains complete frames from the connection's inbound buffer,
// leaving partial frames for the next traffic event
func (s *Source) OnTraffic(c gnet.Conn) gnet.Action {
	for {
		header, err := c.Peek(frameHeaderSize)
		if err != nil {
			// Not enough buffered for a header yet
			return gnet.None
		}

		length := binary.BigEndian.Uint32(header)
		if length == 0 || length > sources.MaxFrameSize {
			log.Warnf("push receiver [%s]: invalid frame length %d from %v, closing connection",
				s.config.Name, length, c.RemoteAddr())
			return gnet.Close
		}

		if c.InboundBuffered() < frameHeaderSize+int(length) {
			return gnet.None
		}

		frame, err := c.Next(frameHeaderSize + int(length))
		if err != nil {
			log.Errorf("push receiver [%s]: error draining frame: %v", s.config.Name, err)
			return gnet.Close
		}

		r, err := sources.DecodeFrameBody(frame[frameHeaderSize:])
		if err != nil {
			log.Warnf("push receiver [%s]: undecodable frame from %v: %v", s.config.Name, c.RemoteAddr(), err)
			continue
		}

		s.distribute(r)
	}
}

// OnClose logs agent disconnects
func (s *Source) OnClose(c gnet.Conn, err error) gnet.Action {
	if err != nil {
		log.Debugf("push receiver [%s]: agent %v disconnected: %v", s.config.Name, c.RemoteAddr(), err)
	}
	return gnet.None
}

func (s *Source) distribute(r *types.ArrayReading) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if r.ArrayName == "" {
		r.ArrayName = s.config.Name
	}
	r.ArrayType = "receiver"

	s.enricherFor(r.ArrayName).Enrich(r)

	monitoring.ReadingsReceived.WithLabelValues(r.ArrayName).Inc()
	s.ReadingDistributor <- *r
}

// enricherFor returns the enricher for a pushed array name, building one on
// first sight. Arrays present in config get their configured panel; unknown
// arrays get the receiver's own panel defaults.
func (s *Source) enricherFor(arrayName string) *enrichment.Enricher {
	s.enrichersMu.RLock()
	e, ok := s.enrichers[arrayName]
	s.enrichersMu.RUnlock()
	if ok {
		return e
	}

	s.enrichersMu.Lock()
	defer s.enrichersMu.Unlock()
	if e, ok = s.enrichers[arrayName]; ok {
		return e
	}

	arrayConfig, err := sources.LoadArrayConfig(s.configProvider, arrayName)
	if err != nil {
		log.Infof("push receiver [%s]: no config for pushed array [%s], using receiver panel defaults",
			s.config.Name, arrayName)
		fallback := s.config
		fallback.Name = arrayName
		arrayConfig = &fallback
	}

	e = enrichment.NewEnricher(*arrayConfig, s.logger)
	s.enrichers[arrayName] = e
	return e
}
