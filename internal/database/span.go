package database

import (
	"fmt"
	"time"

	"github.com/arrayops/remotearray/internal/types"
)

// maxSpan caps span queries; a year of 1h buckets is already ~9000 rows per
// array and anything longer should come from the export tooling instead
const maxSpan = 365 * 24 * time.Hour

// TableForSpan picks the aggregate view that keeps a span query at a sane
// row count: minute buckets out to two days, hour buckets beyond.
func TableForSpan(span time.Duration) string {
	if span <= 48*time.Hour {
		return "telemetry_1m"
	}
	return "telemetry_1h"
}

// GetReadingsSpan retrieves aggregate readings for an array covering the
// given span back from now.
func (c *Client) GetReadingsSpan(arrayName string, span time.Duration) ([]types.BucketReading, error) {
	if span > maxSpan {
		return nil, fmt.Errorf("time span exceeds maximum allowed duration of 1 year")
	}

	var readings []types.BucketReading
	table := TableForSpan(span)

	err := c.DB.Table(table).
		Where("arrayname = ? AND bucket > ?", arrayName, time.Now().Add(-span)).
		Order("bucket").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("error querying %s for span readings: %v", table, err)
	}

	return readings, nil
}

// GetLatestReading retrieves the most recent raw telemetry row for an array.
func (c *Client) GetLatestReading(arrayName string) (types.ArrayReading, error) {
	var r types.ArrayReading

	err := c.DB.Table("telemetry").
		Where("arrayname = ?", arrayName).
		Order("time DESC").
		Limit(1).
		Find(&r).Error
	if err != nil {
		return types.ArrayReading{}, fmt.Errorf("error querying database for latest reading: %v", err)
	}

	return r, nil
}
