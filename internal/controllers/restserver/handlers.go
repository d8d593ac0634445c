package restserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/arrayops/remotearray/internal/constants"
	"github.com/arrayops/remotearray/internal/controllers/spaceweather"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/types"
	"github.com/arrayops/remotearray/pkg/responseformat"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// ReadingResponse is the wire rendition of one telemetry reading
type ReadingResponse struct {
	Timestamp        int64   `json:"ts"`
	ArrayName        string  `json:"arrayname"`
	ArrayType        string  `json:"arraytype"`
	BusVoltage       float32 `json:"busvoltage"`
	BusCurrent       float32 `json:"buscurrent"`
	OutputPower      float32 `json:"outputpower"`
	PanelTemp        float32 `json:"paneltemp"`
	SunDistanceAU    float32 `json:"sundistanceau"`
	IncidenceAngle   float32 `json:"incidenceangle"`
	Eclipse          bool    `json:"eclipse"`
	PredictedPower   float32 `json:"predictedpower"`
	EquilibriumTemp  float32 `json:"equilibriumtemp"`
	PerformanceRatio float32 `json:"performanceratio"`
}

// SpanReadingResponse is one aggregate bucket in a span response
type SpanReadingResponse struct {
	ReadingResponse
	MaxOutputPower      float32 `json:"max_outputpower"`
	MinOutputPower      float32 `json:"min_outputpower"`
	MaxPanelTemp        float32 `json:"max_paneltemp"`
	MinPanelTemp        float32 `json:"min_paneltemp"`
	MinPerformanceRatio float32 `json:"min_performanceratio"`
	PeriodEnergy        float32 `json:"period_energy"`
}

// ArrayResponse is one configured array in the inventory response
type ArrayResponse struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	PanelArea    float64 `json:"panel_area"`
	Efficiency   float64 `json:"efficiency"`
	Absorptivity float64 `json:"absorptivity"`
	Emissivity   float64 `json:"emissivity"`
}

func transformReading(r *types.ArrayReading) ReadingResponse {
	return ReadingResponse{
		Timestamp:        r.Timestamp.Unix(),
		ArrayName:        r.ArrayName,
		ArrayType:        r.ArrayType,
		BusVoltage:       r.BusVoltage,
		BusCurrent:       r.BusCurrent,
		OutputPower:      r.OutputPower,
		PanelTemp:        r.PanelTemp,
		SunDistanceAU:    r.SunDistanceAU,
		IncidenceAngle:   r.IncidenceAngle,
		Eclipse:          r.Eclipse,
		PredictedPower:   r.PredictedPower,
		EquilibriumTemp:  r.EquilibriumTemp,
		PerformanceRatio: r.PerformanceRatio,
	}
}

func transformSpanReadings(readings []types.BucketReading) []SpanReadingResponse {
	out := make([]SpanReadingResponse, 0, len(readings))
	for i := range readings {
		r := &readings[i]
		resp := SpanReadingResponse{
			ReadingResponse:     transformReading(&r.ArrayReading),
			MaxOutputPower:      r.MaxOutputPower,
			MinOutputPower:      r.MinOutputPower,
			MaxPanelTemp:        r.MaxPanelTemp,
			MinPanelTemp:        r.MinPanelTemp,
			MinPerformanceRatio: r.MinPerformanceRatio,
			PeriodEnergy:        r.PeriodEnergy,
		}
		resp.Timestamp = r.Bucket.Unix()
		out = append(out, resp)
	}
	return out
}

// resolveArray picks the array to query: explicit ?array= parameter first,
// then the configured default
func (h *Handlers) resolveArray(req *http.Request) (string, error) {
	arrayName := req.URL.Query().Get("array")
	if arrayName == "" {
		arrayName = h.controller.restConfig.DefaultArray
	}
	if arrayName == "" {
		return "", fmt.Errorf("array parameter is required")
	}
	if !h.controller.ArrayNames[arrayName] {
		return "", fmt.Errorf("array not found")
	}
	return arrayName, nil
}

// GetLatest handles requests for the most recent reading from an array
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		http.Error(w, "database not enabled", http.StatusInternalServerError)
		return
	}

	arrayName, err := h.resolveArray(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reading, err := h.controller.DB.GetLatestReading(arrayName)
	if err != nil {
		log.Errorf("error fetching latest reading: %v", err)
		http.Error(w, "error fetching latest reading", http.StatusInternalServerError)
		return
	}

	err = h.formatter.WriteResponse(w, req, transformReading(&reading), map[string]string{
		"Cache-Control": "max-age=10",
	})
	if err != nil {
		log.Error("error encoding latest reading:", err)
	}
}

// GetSpan handles requests for aggregate telemetry over a time span
func (h *Handlers) GetSpan(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		http.Error(w, "database not enabled", http.StatusInternalServerError)
		return
	}

	arrayName, err := h.resolveArray(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	vars := mux.Vars(req)
	span, err := time.ParseDuration(vars["span"])
	if err != nil {
		log.Errorf("invalid request: unable to parse duration: %v", vars["span"])
		http.Error(w, "error: invalid span duration", http.StatusBadRequest)
		return
	}

	readings, err := h.controller.DB.GetReadingsSpan(arrayName, span)
	if err != nil {
		log.Errorf("error fetching span readings: %v", err)
		if err.Error() == "time span exceeds maximum allowed duration of 1 year" {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, "error fetching telemetry", http.StatusInternalServerError)
		}
		return
	}

	err = h.formatter.WriteResponse(w, req, transformSpanReadings(readings), map[string]string{
		"Cache-Control": "max-age=60",
	})
	if err != nil {
		log.Error("error encoding span readings:", err)
	}
}

// GetArrays handles requests for the configured array inventory
func (h *Handlers) GetArrays(w http.ResponseWriter, req *http.Request) {
	out := make([]ArrayResponse, 0, len(h.controller.Arrays))
	for _, array := range h.controller.Arrays {
		out = append(out, ArrayResponse{
			Name:         array.Name,
			Type:         array.Type,
			PanelArea:    array.Panel.Area,
			Efficiency:   array.Panel.Efficiency,
			Absorptivity: array.Panel.Absorptivity,
			Emissivity:   array.Panel.Emissivity,
		})
	}

	if err := h.formatter.WriteResponse(w, req, out, nil); err != nil {
		log.Error("error encoding array inventory:", err)
	}
}

// GetForecast serves the cached solar activity forecast. The document is
// stored as the JSON the space weather controller fetched, so it goes out
// without re-encoding; ?hours= selects the outlook span.
func (h *Handlers) GetForecast(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		http.Error(w, "database not enabled", http.StatusInternalServerError)
		return
	}

	spanHours := 72
	if hours := req.URL.Query().Get("hours"); hours != "" {
		parsed, err := strconv.Atoi(hours)
		if err != nil || parsed <= 0 {
			http.Error(w, "error: invalid hours parameter", http.StatusBadRequest)
			return
		}
		spanHours = parsed
	}

	var record spaceweather.SolarForecastRecord
	err := h.controller.DB.DB.Where("forecast_span_hours = ?", spanHours).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		http.Error(w, "no forecast cached for that span", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("error fetching solar forecast: %v", err)
		http.Error(w, "error fetching forecast", http.StatusInternalServerError)
		return
	}

	err = h.formatter.WriteRawJSON(w, req, record.Data.Bytes, record.UpdatedAt)
	if err != nil {
		log.Error("error writing forecast response:", err)
	}
}

// GetHealth reports daemon liveness and database connectivity
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	health := map[string]any{
		"status":   "ok",
		"version":  constants.Version,
		"database": h.controller.DBEnabled,
	}

	if err := h.formatter.WriteResponse(w, req, health, nil); err != nil {
		log.Error("error encoding health response:", err)
	}
}
