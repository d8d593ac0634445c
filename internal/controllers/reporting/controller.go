// Package reporting provides integration with an external fleet-operations
// service, uploading the latest array telemetry on a fixed interval.
package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/constants"
	"github.com/arrayops/remotearray/internal/controllers"
	"github.com/arrayops/remotearray/internal/database"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/pkg/config"
	"go.uber.org/zap"
)

// ReportPayload represents the JSON payload for the fleet-operations API
type ReportPayload struct {
	SoftwareType     string  `json:"softwareType"`
	DateTime         string  `json:"dateTime"`
	ArrayName        string  `json:"arrayName"`
	BusVoltage       float64 `json:"busVoltage"`
	BusCurrent       float64 `json:"busCurrent"`
	OutputPower      float64 `json:"outputPower"`
	MaxOutputPower   float64 `json:"maxOutputPower"`
	PanelTemp        float64 `json:"panelTemp"`
	SunDistanceAU    float64 `json:"sunDistanceAU"`
	IncidenceAngle   float64 `json:"incidenceAngle"`
	PredictedPower   float64 `json:"predictedPower"`
	EquilibriumTemp  float64 `json:"equilibriumTemp"`
	PerformanceRatio float64 `json:"performanceRatio"`
	PeriodEnergy     float64 `json:"periodEnergy"`
}

// Controller uploads periodic telemetry reports to the fleet-operations
// service
type Controller struct {
	ctx             context.Context
	wg              *sync.WaitGroup
	configProvider  config.ConfigProvider
	ReportingConfig config.ReportingData
	DB              *database.Client
	httpClient      *http.Client
	logger          *zap.SugaredLogger
}

// NewController creates a new reporting controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.ReportingData, logger *zap.SugaredLogger) (*Controller, error) {
	if err := controllers.ValidateTimescaleDBConfig(configProvider, "reporting"); err != nil {
		return nil, err
	}

	if err := controllers.ValidateRequiredFields(map[string]string{
		"fleet ID":        rc.FleetID,
		"API key":         rc.APIKey,
		"pull-from-array": rc.PullFromArray,
	}); err != nil {
		return nil, err
	}

	// Set defaults
	if rc.APIEndpoint == "" {
		rc.APIEndpoint = "https://fleetops.example.com/api/v1/telemetry"
	}
	if rc.UploadInterval == "" {
		rc.UploadInterval = "60"
	}

	db, err := controllers.SetupDatabaseConnection(configProvider, logger)
	if err != nil {
		return nil, err
	}

	// Validate pull-from-array exists
	if !db.ValidatePullFromArray(rc.PullFromArray) {
		return nil, fmt.Errorf("pull-from-array %v is not a valid array name", rc.PullFromArray)
	}

	return &Controller{
		ctx:             ctx,
		wg:              wg,
		configProvider:  configProvider,
		ReportingConfig: rc,
		DB:              db,
		httpClient:      controllers.NewHTTPClient(5 * time.Second),
		logger:          logger,
	}, nil
}

func (c *Controller) StartController() error {
	log.Info("Starting reporting controller...")
	go c.sendPeriodicReports()
	return nil
}

func (c *Controller) sendPeriodicReports() {
	c.wg.Add(1)
	defer c.wg.Done()

	submitInterval, err := time.ParseDuration(fmt.Sprintf("%vs", c.ReportingConfig.UploadInterval))
	if err != nil {
		c.logger.Errorf("error parsing duration: %v", err)
		return
	}

	ticker := time.NewTicker(submitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.logger.Debug("Sending reading to fleet operations...")
			br, err := c.DB.GetLatestBucketReading(c.ReportingConfig.PullFromArray)
			if err != nil {
				c.logger.Errorf("error getting latest reading from TimescaleDB: %v", err)
				continue
			}

			if err := c.sendReadingToFleetOps(&br); err != nil {
				c.logger.Errorf("error sending reading to fleet operations: %v", err)
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) sendReadingToFleetOps(r *database.FetchedBucketReading) error {
	if r.Bucket == nil || r.Bucket.IsZero() {
		return fmt.Errorf("rejecting empty reading for array %v", c.ReportingConfig.PullFromArray)
	}

	payload := ReportPayload{
		SoftwareType:     fmt.Sprintf("remotearray v%s", constants.Version),
		DateTime:         r.Bucket.UTC().Format(time.RFC3339),
		ArrayName:        r.ArrayName,
		BusVoltage:       float64(r.BusVoltage),
		BusCurrent:       float64(r.BusCurrent),
		OutputPower:      float64(r.OutputPower),
		MaxOutputPower:   float64(r.MaxOutputPower),
		PanelTemp:        float64(r.PanelTemp),
		SunDistanceAU:    float64(r.SunDistanceAU),
		IncidenceAngle:   float64(r.IncidenceAngle),
		PredictedPower:   float64(r.PredictedPower),
		EquilibriumTemp:  float64(r.EquilibriumTemp),
		PerformanceRatio: float64(r.PerformanceRatio),
		PeriodEnergy:     float64(r.PeriodEnergy),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling report payload: %v", err)
	}

	// Authentication rides in URL query parameters
	authURL := fmt.Sprintf("%s?ID=%s&KEY=%s",
		c.ReportingConfig.APIEndpoint,
		url.QueryEscape(c.ReportingConfig.FleetID),
		url.QueryEscape(c.ReportingConfig.APIKey))

	req, err := http.NewRequestWithContext(c.ctx, "POST", authURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating fleet operations request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debugf("Making POST request to fleet operations: %s", c.ReportingConfig.APIEndpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to fleet operations: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading fleet operations response: %v", err)
	}

	log.Debugf("fleet operations response status: %d, body: %s", resp.StatusCode, string(body))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("fleet operations API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
