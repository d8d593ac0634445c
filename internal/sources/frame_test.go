package sources

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/arrayops/remotearray/internal/types"
)

func TestFrameRoundTrip(t *testing.T) {
	in := types.ArrayReading{
		Timestamp:      time.Date(2026, time.February, 3, 4, 5, 6, 0, time.UTC),
		ArrayName:      "array-a",
		ArrayType:      "groundstation",
		BusVoltage:     32.5,
		OutputPower:    2810.4,
		SunDistanceAU:  0.9934,
		IncidenceAngle: 23.5,
		Eclipse:        true,
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, &in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	out, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if out.ArrayName != in.ArrayName || out.BusVoltage != in.BusVoltage ||
		out.SunDistanceAU != in.SunDistanceAU || !out.Eclipse {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", out.Timestamp, in.Timestamp)
	}
}

func TestReadFrameSequential(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		r := types.ArrayReading{ArrayName: "array-a", BusVoltage: float32(30 + i)}
		if err := WriteFrame(&buf, &r); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		out, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if out.BusVoltage != float32(30+i) {
			t.Errorf("frame %d: got voltage %v, want %v", i, out.BusVoltage, 30+i)
		}
	}

	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("expected EOF after last frame, got %v", err)
	}
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
	}{
		{"zero length", 0},
		{"over max frame size", MaxFrameSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header [4]byte
			binary.BigEndian.PutUint32(header[:], tt.length)
			if _, err := ReadFrame(bytes.NewReader(header[:])); err == nil {
				t.Error("expected error for invalid frame length")
			}
		})
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	r := types.ArrayReading{ArrayName: "array-a"}
	frame, err := EncodeFrame(&r)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	if _, err := ReadFrame(bytes.NewReader(frame[:len(frame)-2])); err == nil {
		t.Error("expected error for truncated frame body")
	}
}
