package telemetry

import (
	"context"
	"strconv"

	"github.com/ehr/periop/internal/platform/middleware"
)

// RecordAccess counts PHI access by resource, action and status class. It
// lets the provider serve as a middleware.AccessRecorder.
func (tp *TelemetryProvider) RecordAccess(_ context.Context, entry middleware.AccessEntry) error {
	if !tp.cfg.metricsOn() {
		return nil
	}
	tp.phiAccess.WithLabelValues(entry.ResourceType, entry.Action, statusClass(entry.StatusCode)).Inc()
	return nil
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
