// Package telemetry holds the process-wide Prometheus collectors and the
// tracer used around outbound calls.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/iwvelando/rental-metrics"

var (
	// Calculations counts engine invocations by operation and outcome.
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_metrics_calculations_total",
			Help: "Number of metric calculations performed",
		},
		[]string{"operation", "status"},
	)

	// RentLookups counts rent estimate lookups by outcome.
	RentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_metrics_rent_lookups_total",
			Help: "Rent estimate service lookups",
		},
		[]string{"status"},
	)

	// RentPeriodWarnings counts advisory rent period warnings by type.
	RentPeriodWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_metrics_rent_period_warnings_total",
			Help: "Advisory warnings raised while validating rent periods",
		},
		[]string{"type"},
	)

	// PreferenceOperations counts preference store operations by kind and outcome.
	PreferenceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_metrics_preference_operations_total",
			Help: "Preference store operations",
		},
		[]string{"operation", "status"},
	)
)

// Status labels.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// Tracer returns the tracer from the globally registered provider. Without a
// configured provider spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Outcome maps an error to a status label.
func Outcome(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
