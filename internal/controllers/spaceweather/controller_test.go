package spaceweather

import (
	"encoding/json"
	"math"
	"testing"
)

const sampleForecastBody = `{
  "success": true,
  "periods": [
    {"dateTimeISO": "2026-01-15T00:00:00Z", "f107": 155.2, "sunspotNumber": 142, "apIndex": 12, "kpIndex": 3.3, "protonEventProbability": 5, "radioBlackout": "R1"},
    {"dateTimeISO": "2026-01-16T00:00:00Z", "f107": 150.8, "sunspotNumber": 138, "apIndex": 8, "kpIndex": 2.7, "protonEventProbability": 1, "radioBlackout": "none"},
    {"dateTimeISO": "2026-01-17T00:00:00Z", "f107": 148.0, "sunspotNumber": 130, "apIndex": 6, "kpIndex": 2.0, "protonEventProbability": 1, "radioBlackout": "none"}
  ]
}`

func TestParseForecastResponse(t *testing.T) {
	response, err := ParseForecastResponse([]byte(sampleForecastBody))
	if err != nil {
		t.Fatalf("ParseForecastResponse: %v", err)
	}

	if len(response.Periods) != 3 {
		t.Fatalf("periods: got %d, want 3", len(response.Periods))
	}

	p := response.Periods[0]
	if math.Abs(float64(p.RadioFlux)-155.2) > 1e-4 {
		t.Errorf("f107: got %v, want 155.2", p.RadioFlux)
	}
	if p.SunspotNumber != 142 {
		t.Errorf("sunspot number: got %v, want 142", p.SunspotNumber)
	}
	if p.RadioBlackout != "R1" {
		t.Errorf("radio blackout: got %q, want R1", p.RadioBlackout)
	}
}

func TestParseForecastResponseRejectsFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"service error", `{"success": false, "error": "invalid key"}`},
		{"malformed body", `{"success": tru`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseForecastResponse([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildForecastRecord(t *testing.T) {
	response, err := ParseForecastResponse([]byte(sampleForecastBody))
	if err != nil {
		t.Fatalf("ParseForecastResponse: %v", err)
	}

	record, err := BuildForecastRecord(response, 72, "https://spaceweather.example.com/api/v1")
	if err != nil {
		t.Fatalf("BuildForecastRecord: %v", err)
	}

	if record.ForecastSpanHours != 72 {
		t.Errorf("span hours: got %v, want 72", record.ForecastSpanHours)
	}

	// The JSONB column must round-trip back into the period structs
	var periods []SolarForecastPeriod
	if err := json.Unmarshal(record.Data.Bytes, &periods); err != nil {
		t.Fatalf("decoding cached periods: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("cached periods: got %d, want 3", len(periods))
	}
	if math.Abs(float64(periods[2].RadioFlux)-148.0) > 1e-4 {
		t.Errorf("cached f107: got %v, want 148.0", periods[2].RadioFlux)
	}
}
