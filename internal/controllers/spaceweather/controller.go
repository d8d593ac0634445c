// Package spaceweather provides integration with a space-environment
// forecast service, caching solar activity outlooks in the database. Flight
// planners correlate the cached indices with array performance trends.
package spaceweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/controllers"
	"github.com/arrayops/remotearray/internal/database"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/pkg/config"
	"github.com/jackc/pgtype"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Controller holds our space weather configuration
type Controller struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	configProvider     config.ConfigProvider
	SpaceWeatherConfig config.SpaceWeatherData
	DB                 *database.Client
	httpClient         *http.Client
	logger             *zap.SugaredLogger
}

// SolarForecastResponse is the envelope the forecast service wraps its
// responses in
type SolarForecastResponse struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Periods []SolarForecastPeriod `json:"periods"`
}

// SolarForecastPeriod is one forecast interval of solar-terrestrial indices
type SolarForecastPeriod struct {
	IntervalStart   time.Time `json:"dateTimeISO"`
	RadioFlux       float32   `json:"f107"`
	SunspotNumber   int16     `json:"sunspotNumber"`
	APIndex         int16     `json:"apIndex"`
	KPIndex         float32   `json:"kpIndex"`
	ProtonEventProb int16     `json:"protonEventProbability"`
	RadioBlackout   string    `json:"radioBlackout"`
}

// SolarForecastRecord is a cached forecast document. Span hours is the unique
// key: one row per outlook length, refreshed in place.
type SolarForecastRecord struct {
	gorm.Model

	ForecastSpanHours int16        `gorm:"uniqueIndex,not null"`
	Source            string       `gorm:"not null"`
	Data              pgtype.JSONB `gorm:"type:jsonb;default:'[]';not null"`
}

func (SolarForecastRecord) TableName() string {
	return "solar_forecasts"
}

// NewController creates a new space weather controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sw config.SpaceWeatherData, logger *zap.SugaredLogger) (*Controller, error) {
	if err := controllers.ValidateTimescaleDBConfig(configProvider, "space weather"); err != nil {
		return nil, err
	}

	// Set defaults
	if sw.APIEndpoint == "" {
		sw.APIEndpoint = "https://spaceweather.example.com/api/v1"
	}

	db, err := controllers.SetupDatabaseConnection(configProvider, logger)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		ctx:                ctx,
		wg:                 wg,
		configProvider:     configProvider,
		SpaceWeatherConfig: sw,
		DB:                 db,
		httpClient:         controllers.NewHTTPClient(5 * time.Second),
		logger:             logger,
	}

	if err := c.CreateTables(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Controller) StartController() error {
	log.Info("Starting space weather controller...")

	// Three-day outlook for operations, 27-day outlook covering one solar
	// rotation for trend planning
	go c.refreshForecastPeriodically(3, 24)
	go c.refreshForecastPeriodically(27, 24)

	return nil
}

// CreateTables creates or migrates the forecast cache table
func (c *Controller) CreateTables() error {
	if err := c.DB.DB.AutoMigrate(SolarForecastRecord{}); err != nil {
		return fmt.Errorf("error creating or migrating solar forecast table: %v", err)
	}
	return nil
}

func (c *Controller) refreshForecastPeriodically(numPeriods int16, periodHours int16) {
	c.wg.Add(1)
	defer c.wg.Done()

	// time.Tickers only begin to fire *after* the interval has elapsed.
	// Since we're dealing with very long intervals, we fire the fetcher now,
	// before we start the ticker.
	c.refreshForecast(numPeriods, periodHours)

	spanInterval, err := time.ParseDuration(fmt.Sprintf("%vh", periodHours))
	if err != nil {
		log.Errorf("error parsing space weather refresh interval: %v", err)
		return
	}

	// We refresh our forecasts four times in every period. For a daily
	// forecast period, that is every 6 hours.
	refreshInterval := spanInterval / 4

	log.Infof("Starting space weather fetcher: %v hour outlook, refresh every %v minutes",
		numPeriods*periodHours, refreshInterval.Minutes())

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Infof("Updating %d hour solar forecast...", numPeriods*periodHours)
			c.refreshForecast(numPeriods, periodHours)
		case <-c.ctx.Done():
			return
		}
	}
}

// refreshForecast fetches one outlook and upserts its cache row. Fetch
// failures leave the previous cached forecast in place.
func (c *Controller) refreshForecast(numPeriods int16, periodHours int16) {
	record, err := c.fetchForecast(numPeriods, periodHours)
	if err != nil {
		log.Errorf("error fetching solar forecast: %v", err)
		return
	}

	var existing SolarForecastRecord
	err = c.DB.DB.Where("forecast_span_hours = ?", record.ForecastSpanHours).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		err = c.DB.DB.Create(record).Error
	} else if err == nil {
		existing.Data = record.Data
		existing.Source = record.Source
		err = c.DB.DB.Save(&existing).Error
	}
	if err != nil {
		log.Errorf("error saving solar forecast to database: %v", err)
		return
	}
	log.Debugf("saved %d hour solar forecast", record.ForecastSpanHours)
}

func (c *Controller) fetchForecast(numPeriods int16, periodHours int16) (*SolarForecastRecord, error) {
	v := url.Values{}
	v.Set("filter", fmt.Sprintf("%vh", strconv.FormatInt(int64(periodHours), 10)))
	v.Set("limit", strconv.FormatInt(int64(numPeriods), 10))
	if c.SpaceWeatherConfig.APIKey != "" {
		v.Set("key", c.SpaceWeatherConfig.APIKey)
	}

	forecastURL := fmt.Sprintf("%s/forecasts/solar?%s", c.SpaceWeatherConfig.APIEndpoint, v.Encode())
	req, err := http.NewRequestWithContext(c.ctx, "GET", forecastURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating space weather API request: %v", err)
	}

	log.Debugf("Making request to space weather service: %v", forecastURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to space weather service: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading space weather response: %v", err)
	}

	response, err := ParseForecastResponse(bodyBytes)
	if err != nil {
		return nil, err
	}

	return BuildForecastRecord(response, numPeriods*periodHours, c.SpaceWeatherConfig.APIEndpoint)
}

// ParseForecastResponse decodes a forecast service response body and rejects
// unsuccessful envelopes.
func ParseForecastResponse(body []byte) (*SolarForecastResponse, error) {
	response := &SolarForecastResponse{}
	if err := json.Unmarshal(body, response); err != nil {
		return nil, fmt.Errorf("unable to decode space weather response: %v", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("bad response from space weather service: %v", response.Error)
	}
	return response, nil
}

// BuildForecastRecord packs a forecast's periods into a cache row as JSONB.
func BuildForecastRecord(response *SolarForecastResponse, spanHours int16, source string) (*SolarForecastRecord, error) {
	periodsJSON, err := json.Marshal(response.Periods)
	if err != nil {
		return nil, fmt.Errorf("could not marshal forecast periods to JSON: %v", err)
	}

	record := SolarForecastRecord{
		ForecastSpanHours: spanHours,
		Source:            source,
	}
	if err := record.Data.Set(periodsJSON); err != nil {
		return nil, fmt.Errorf("could not set forecast JSONB data: %v", err)
	}

	return &record, nil
}
