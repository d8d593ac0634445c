package database

import (
	"testing"
	"time"
)

func TestTableForSpan(t *testing.T) {
	tests := []struct {
		name string
		span time.Duration
		want string
	}{
		{"one hour", time.Hour, "telemetry_1m"},
		{"one day", 24 * time.Hour, "telemetry_1m"},
		{"two days exactly", 48 * time.Hour, "telemetry_1m"},
		{"one week", 7 * 24 * time.Hour, "telemetry_1h"},
		{"three months", 90 * 24 * time.Hour, "telemetry_1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TableForSpan(tt.span); got != tt.want {
				t.Errorf("TableForSpan(%v) = %v, want %v", tt.span, got, tt.want)
			}
		})
	}
}
