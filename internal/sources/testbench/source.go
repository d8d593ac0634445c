// Package testbench implements a telemetry source for lab qualification
// benches that stream measurements over a serial line. Benches emit one
// record per line as space-separated key=value pairs, e.g.
//
//	busv=32.10 busi=8.41 pwr=269.9 ptemp=48.2 angle=12.5 dist=1.0
package testbench

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/enrichment"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/internal/sources"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/config"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// Source holds our serial connection to a test bench
type Source struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	rwc                io.ReadWriteCloser
	config             config.ArrayData
	enricher           *enrichment.Enricher
	ReadingDistributor chan types.ArrayReading
	logger             *zap.SugaredLogger
}

// NewSource creates a test bench source for one configured array.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, arrayName string, distributor chan types.ArrayReading, logger *zap.SugaredLogger) (sources.TelemetrySource, error) {
	arrayConfig, err := sources.LoadArrayConfig(configProvider, arrayName)
	if err != nil {
		return nil, err
	}

	if arrayConfig.SerialDevice == "" {
		return nil, fmt.Errorf("test bench [%s] must define a serial device", arrayName)
	}
	if arrayConfig.Baud == 0 {
		arrayConfig.Baud = 115200
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

// StartTelemetrySource opens the serial port and launches the line-reading
// goroutine
func (s *Source) StartTelemetrySource() error {
	log.Infof("Starting test bench source [%v]...", s.config.Name)

	s.wg.Add(1)
	go s.GetBenchRecords()

	return nil
}

// GetBenchRecords reads records off the serial port until cancellation,
// reopening the port whenever it fails
func (s *Source) GetBenchRecords() {
	defer s.wg.Done()
	log.Info("starting test bench record getter")
	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling GetBenchRecords()")
			if s.rwc != nil {
				s.rwc.Close()
			}
			return
		default:
			err := s.streamRecords()
			if err != nil {
				s.logger.Error(err)
				if s.rwc != nil {
					s.rwc.Close()
				}
				s.logger.Info("reopening serial port in 30 seconds...")

				select {
				case <-s.ctx.Done():
					return
				case <-time.After(30 * time.Second):
				}
			}
		}
	}
}

func (s *Source) streamRecords() error {
	var err error

	sc := &serial.Config{Name: s.config.SerialDevice, Baud: s.config.Baud}
	s.logger.Debugf("attempting to open serial port %s at %d baud", s.config.SerialDevice, s.config.Baud)
	s.rwc, err = serial.OpenPort(sc)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %v", s.config.SerialDevice, err)
	}

	scanner := bufio.NewScanner(s.rwc)
	for scanner.Scan() {
		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r, err := ParseBenchRecord(line)
		if err != nil {
			log.Warnf("test bench [%s] sent an unparseable record: %v", s.config.Name, err)
			continue
		}

		r.Timestamp = time.Now()
		r.ArrayName = s.config.Name
		r.ArrayType = "testbench"

		s.enricher.Enrich(&r)

		monitoring.ReadingsReceived.WithLabelValues(s.config.Name).Inc()
		s.ReadingDistributor <- r
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from test bench [%s]: %v", s.config.Name, err)
	}
	return fmt.Errorf("test bench [%s] serial stream ended", s.config.Name)
}

// ParseBenchRecord parses one key=value record line into a reading. Unknown
// keys are ignored so newer bench firmware can add fields freely.
func ParseBenchRecord(line string) (types.ArrayReading, error) {
	var r types.ArrayReading
	sawField := false

	for _, token := range strings.Fields(line) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return types.ArrayReading{}, fmt.Errorf("malformed token %q", token)
		}

		// Resolve the key first: unknown keys are skipped whole, so their
		// values are never required to be numeric
		var dst *float32
		switch key {
		case "busv":
			dst = &r.BusVoltage
		case "busi":
			dst = &r.BusCurrent
		case "pwr":
			dst = &r.OutputPower
		case "str1":
			dst = &r.StringCurrent1
		case "str2":
			dst = &r.StringCurrent2
		case "str3":
			dst = &r.StringCurrent3
		case "str4":
			dst = &r.StringCurrent4
		case "ptemp":
			dst = &r.PanelTemp
		case "angle":
			dst = &r.IncidenceAngle
		case "drive":
			dst = &r.DriveAngle
		case "dist":
			dst = &r.SunDistanceAU
		default:
			continue
		}

		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return types.ArrayReading{}, fmt.Errorf("bad value for %s: %v", key, err)
		}
		*dst = float32(f)
		sawField = true
	}

	if !sawField {
		return types.ArrayReading{}, fmt.Errorf("record %q contains no known fields", line)
	}
	return r, nil
}
