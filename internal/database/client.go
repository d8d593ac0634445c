package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/pkg/config"
	"go.uber.org/zap"
)

// Client holds the connection to a TimescaleDB database
type Client struct {
	configProvider config.ConfigProvider
	DB             *gorm.DB // Exported so it can be accessed from other packages
	logger         *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *Client {
	return &Client{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Connect connects to the TimescaleDB database
func (c *Client) Connect() error {
	storageConfig, err := c.configProvider.GetStorageConfig()
	if err != nil {
		return fmt.Errorf("error loading storage configuration: %v", err)
	}
	if storageConfig.TimescaleDB == nil || storageConfig.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("TimescaleDB storage is not configured")
	}

	c.DB, err = CreateConnection(storageConfig.TimescaleDB.ConnectionString)
	if err != nil {
		return err
	}

	return nil
}

// ValidatePullFromArray validates that the array name exists in config
func (c *Client) ValidatePullFromArray(pullFromArray string) bool {
	arrays, err := c.configProvider.GetArrays()
	if err != nil {
		return false
	}

	for _, array := range arrays {
		if array.Name == pullFromArray {
			return true
		}
	}
	return false
}

// GetLatestBucketReading retrieves the most recent aggregate reading for an
// array from the one-minute materialized view
func (c *Client) GetLatestBucketReading(pullFromArray string) (FetchedBucketReading, error) {
	var br FetchedBucketReading

	if err := c.DB.Table("telemetry_1m").Where("arrayname=? AND bucket > NOW() - INTERVAL '2 minutes'", pullFromArray).Limit(1).Find(&br).Error; err != nil {
		return FetchedBucketReading{}, fmt.Errorf("error querying database for latest readings: %+v", err)
	}

	return br, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}
