// array-simulator synthesizes orbital solar array telemetry and pushes it to
// a remotearray push receiver as length-prefixed msgpack frames. Useful for
// exercising a full ingest/storage/REST stack without a spacecraft.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arrayops/remotearray/internal/sources"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/ephemeris"
	"github.com/google/uuid"
)

const (
	defaultInterval = 4 * time.Second
	defaultPeriod   = 92 * time.Minute
)

// earthShadowHalfAngle is the half-width of the umbra crossing for a low
// orbit, in orbit-phase degrees
const earthShadowHalfAngle = 38.0

// ArraySim holds the state for one simulated array
type ArraySim struct {
	name        string
	area        float64
	efficiency  float64
	betaDeg     float64
	healthRatio float64 // steady-state performance ratio of this array
	phaseOffset float64 // radians, staggers arrays around the orbit
}

func main() {
	var (
		host     = flag.String("host", "localhost", "Push receiver host")
		port     = flag.Int("port", 7500, "Push receiver port")
		arrays   = flag.Int("arrays", 2, "Number of simulated arrays")
		interval = flag.Duration("interval", defaultInterval, "Interval between telemetry frames")
		period   = flag.Duration("period", defaultPeriod, "Orbital period")
		beta     = flag.Float64("beta", 30.0, "Solar beta angle in degrees")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[array-simulator] ", log.LstdFlags)

	sessionID := uuid.New().String()
	logger.Printf("starting simulation session %s: %d arrays, %v orbit, β=%.1f°",
		sessionID, *arrays, *period, *beta)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("shutdown signal received, stopping...")
		cancel()
	}()

	var wg sync.WaitGroup
	for i := 0; i < *arrays; i++ {
		sim := &ArraySim{
			name:        fmt.Sprintf("sim-array-%d", i+1),
			area:        10.0 + 5.0*float64(i),
			efficiency:  0.28,
			betaDeg:     *beta,
			healthRatio: 0.90 + 0.05*rand.Float64(),
			phaseOffset: 2 * math.Pi * float64(i) / float64(*arrays),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			runArray(ctx, logger, sim, fmt.Sprintf("%s:%d", *host, *port), *interval, *period)
		}()
	}

	wg.Wait()
	logger.Println("all simulated arrays stopped")
}

// runArray owns one connection to the receiver, redialing on failure
func runArray(ctx context.Context, logger *log.Logger, sim *ArraySim, addr string, interval, period time.Duration) {
	epoch := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var conn net.Conn
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if conn == nil {
			var err error
			conn, err = net.DialTimeout("tcp", addr, 5*time.Second)
			if err != nil {
				logger.Printf("[%s] could not connect to %s: %v (retrying)", sim.name, addr, err)
				continue
			}
			logger.Printf("[%s] connected to %s", sim.name, addr)
		}

		r := sim.readingAt(time.Now(), epoch, period)
		if err := sources.WriteFrame(conn, &r); err != nil {
			logger.Printf("[%s] write failed: %v (reconnecting)", sim.name, err)
			conn.Close()
			conn = nil
		}
	}
}

// readingAt synthesizes the telemetry sample for one instant of the orbit
func (sim *ArraySim) readingAt(now, epoch time.Time, period time.Duration) types.ArrayReading {
	orbitPhase := 2*math.Pi*now.Sub(epoch).Seconds()/period.Seconds() + sim.phaseOffset
	phaseDeg := math.Mod(orbitPhase*180/math.Pi, 360)
	if phaseDeg < 0 {
		phaseDeg += 360
	}

	// Umbra crossing is centered on orbit phase 180°; high beta orbits
	// never enter shadow
	eclipsed := math.Abs(phaseDeg-180) < earthShadowHalfAngle && math.Abs(sim.betaDeg) < 60

	// Sun-tracking drive with a few degrees of jitter plus the beta-angle
	// offset the single-axis drive cannot remove
	incidence := math.Abs(sim.betaDeg)*0.2 + 3.0*rand.Float64()

	sunDistance := ephemeris.SunDistanceAU(now)
	flux := 1366.0 / (sunDistance * sunDistance)
	predicted := flux * sim.area * sim.efficiency * math.Cos(incidence*math.Pi/180)

	var output float64
	if !eclipsed {
		output = predicted * (sim.healthRatio + 0.01*rand.NormFloat64())
	}

	busVoltage := 32.0 + 0.4*rand.NormFloat64()
	busCurrent := output / busVoltage

	// Panels run hot in the sun and cold in shadow
	panelTemp := -80.0 + 10.0*rand.NormFloat64()
	if !eclipsed {
		panelTemp = 55.0 + 8.0*rand.NormFloat64()
	}

	sunRad := incidence * math.Pi / 180

	return types.ArrayReading{
		Timestamp:      now,
		ArrayName:      sim.name,
		BusVoltage:     float32(busVoltage),
		BusCurrent:     float32(busCurrent),
		OutputPower:    float32(output),
		StringCurrent1: float32(busCurrent / 4),
		StringCurrent2: float32(busCurrent / 4),
		StringCurrent3: float32(busCurrent / 4),
		StringCurrent4: float32(busCurrent / 4),
		PanelTemp:      float32(panelTemp),
		DriveAngle:     float32(phaseDeg),
		SunVectorX:     float32(math.Cos(sunRad)),
		SunVectorY:     float32(math.Sin(sunRad)),
		PanelNormalX:   1,
		SunDistanceAU:  float32(sunDistance),
		Eclipse:        eclipsed,
	}
}
