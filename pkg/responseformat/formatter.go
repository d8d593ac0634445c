// Package responseformat writes REST API responses as JSON or MessagePack.
// Dashboards default to JSON; bandwidth-constrained ground consoles request
// MessagePack with ?format=msgpack.
package responseformat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter encodes and writes API responses in the requested format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse encodes data in the format the request asked for and writes
// it with the given headers. JSON is the default; format=msgpack selects
// MessagePack.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	// Telemetry endpoints are consumed cross-origin by dashboards
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if wantsMsgPack(req) {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

// WriteRawJSON serves data that is already JSON, such as a cached forecast
// document, without a decode/re-encode round trip on the JSON path. The
// payload is wrapped with its generation time when generatedAt is non-zero.
// MessagePack requests still pay the decode cost.
func (f *Formatter) WriteRawJSON(w http.ResponseWriter, req *http.Request, jsonBytes []byte, generatedAt time.Time) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if wantsMsgPack(req) {
		var data any
		if err := json.Unmarshal(jsonBytes, &data); err != nil {
			return err
		}
		if generatedAt.IsZero() {
			return f.writeMsgPack(w, data)
		}
		return f.writeMsgPack(w, map[string]any{
			"generatedAt": generatedAt.UTC().Format(time.RFC3339),
			"data":        data,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if generatedAt.IsZero() {
		_, err := w.Write(jsonBytes)
		return err
	}
	if _, err := w.Write([]byte(`{"generatedAt": "` + generatedAt.UTC().Format(time.RFC3339) + `", "data": `)); err != nil {
		return err
	}
	if _, err := w.Write(jsonBytes); err != nil {
		return err
	}
	_, err := w.Write([]byte("}"))
	return err
}

func wantsMsgPack(req *http.Request) bool {
	return req.URL.Query().Get("format") == "msgpack"
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	encoder := msgpack.NewEncoder(w)
	// Reuse the json tags so both formats agree on field names
	encoder.SetCustomStructTag("json")
	return encoder.Encode(data)
}
