package responseformat

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

type sample struct {
	ArrayName   string  `json:"arrayname"`
	OutputPower float32 `json:"outputpower"`
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/latest", nil)

	err := f.WriteResponse(w, req, sample{ArrayName: "array-a", OutputPower: 269.9}, map[string]string{
		"Cache-Control": "max-age=10",
	})
	if err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cors := w.Header().Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("CORS header: got %q", cors)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "max-age=10" {
		t.Errorf("Cache-Control: got %q", cc)
	}

	var got sample
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.ArrayName != "array-a" {
		t.Errorf("arrayname: got %q", got.ArrayName)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/latest?format=msgpack", nil)

	if err := f.WriteResponse(w, req, sample{ArrayName: "array-a"}, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("Content-Type: got %q", ct)
	}

	// The encoder keys fields by their json tags
	dec := msgpack.NewDecoder(strings.NewReader(w.Body.String()))
	dec.SetCustomStructTag("json")
	var got sample
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.ArrayName != "array-a" {
		t.Errorf("arrayname: got %q", got.ArrayName)
	}
}

func TestWriteRawJSON(t *testing.T) {
	f := NewFormatter()
	generated := time.Date(2026, time.January, 15, 6, 0, 0, 0, time.UTC)
	payload := []byte(`[{"f107":155.2}]`)

	t.Run("wrapped", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/forecast", nil)

		if err := f.WriteRawJSON(w, req, payload, generated); err != nil {
			t.Fatalf("WriteRawJSON: %v", err)
		}

		var got struct {
			GeneratedAt string            `json:"generatedAt"`
			Data        []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if got.GeneratedAt != "2026-01-15T06:00:00Z" {
			t.Errorf("generatedAt: got %q", got.GeneratedAt)
		}
		if len(got.Data) != 1 {
			t.Errorf("data: got %d elements, want 1", len(got.Data))
		}
	})

	t.Run("unwrapped", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/forecast", nil)

		if err := f.WriteRawJSON(w, req, payload, time.Time{}); err != nil {
			t.Fatalf("WriteRawJSON: %v", err)
		}
		if w.Body.String() != string(payload) {
			t.Errorf("body: got %q, want payload verbatim", w.Body.String())
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/forecast?format=msgpack", nil)

		if err := f.WriteRawJSON(w, req, payload, generated); err != nil {
			t.Fatalf("WriteRawJSON: %v", err)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/x-msgpack" {
			t.Errorf("Content-Type: got %q", ct)
		}

		var got map[string]any
		if err := msgpack.NewDecoder(strings.NewReader(w.Body.String())).Decode(&got); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if got["generatedAt"] != "2026-01-15T06:00:00Z" {
			t.Errorf("generatedAt: got %v", got["generatedAt"])
		}
	})
}
