package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcome(t *testing.T) {
	if got := Outcome(nil); got != StatusOK {
		t.Errorf("Outcome(nil) = %q", got)
	}
	if got := Outcome(errors.New("boom")); got != StatusError {
		t.Errorf("Outcome(err) = %q", got)
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Calculations.WithLabelValues("test", StatusOK))
	Calculations.WithLabelValues("test", StatusOK).Inc()
	if got := testutil.ToFloat64(Calculations.WithLabelValues("test", StatusOK)); got != before+1 {
		t.Errorf("counter = %v, expected %v", got, before+1)
	}
}

func TestTracerIsUsableWithoutProvider(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}
