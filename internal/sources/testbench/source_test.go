package testbench

import (
	"math"
	"testing"
)

func TestParseBenchRecord(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		r, err := ParseBenchRecord("busv=32.10 busi=8.41 pwr=269.9 ptemp=48.2 angle=12.5 dist=1.0")
		if err != nil {
			t.Fatalf("ParseBenchRecord: %v", err)
		}
		if math.Abs(float64(r.BusVoltage)-32.10) > 1e-4 {
			t.Errorf("BusVoltage: got %v", r.BusVoltage)
		}
		if math.Abs(float64(r.OutputPower)-269.9) > 1e-3 {
			t.Errorf("OutputPower: got %v", r.OutputPower)
		}
		if math.Abs(float64(r.IncidenceAngle)-12.5) > 1e-4 {
			t.Errorf("IncidenceAngle: got %v", r.IncidenceAngle)
		}
		if r.SunDistanceAU != 1.0 {
			t.Errorf("SunDistanceAU: got %v", r.SunDistanceAU)
		}
	})

	t.Run("string currents", func(t *testing.T) {
		r, err := ParseBenchRecord("str1=2.1 str2=2.2 str3=2.0 str4=2.15")
		if err != nil {
			t.Fatalf("ParseBenchRecord: %v", err)
		}
		if r.StringCurrent1 == 0 || r.StringCurrent4 == 0 {
			t.Errorf("string currents not parsed: %+v", r)
		}
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		r, err := ParseBenchRecord("busv=28.0 firmware_rev=14")
		if err != nil {
			t.Fatalf("ParseBenchRecord: %v", err)
		}
		if r.BusVoltage != 28.0 {
			t.Errorf("BusVoltage: got %v", r.BusVoltage)
		}
	})

	t.Run("unknown keys with non-numeric values ignored", func(t *testing.T) {
		r, err := ParseBenchRecord("busv=28.0 mode=auto operator=jk")
		if err != nil {
			t.Fatalf("ParseBenchRecord: %v", err)
		}
		if r.BusVoltage != 28.0 {
			t.Errorf("BusVoltage: got %v", r.BusVoltage)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := ParseBenchRecord("busv 32.1"); err == nil {
			t.Error("expected error for token without =")
		}
	})

	t.Run("non-numeric value", func(t *testing.T) {
		if _, err := ParseBenchRecord("busv=abc"); err == nil {
			t.Error("expected error for non-numeric value")
		}
	})

	t.Run("no known fields", func(t *testing.T) {
		if _, err := ParseBenchRecord("foo=1 bar=2"); err == nil {
			t.Error("expected error for record with no known fields")
		}
	})
}
