// Package sources defines the interface and wire framing shared by all
// telemetry source backends.
package sources

// TelemetrySource is an interface that provides standard methods for the
// various telemetry source backends
type TelemetrySource interface {
	StartTelemetrySource() error
	SourceName() string
}
