package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ehr/periop/internal/domain/assessment"
)

// ObserveAssessment runs derive under an "assessment.derive" span and records
// the resulting scores and alerts.
func (tp *TelemetryProvider) ObserveAssessment(ctx context.Context, source string, derive func() assessment.Assessment) assessment.Assessment {
	var span trace.Span
	if tp.cfg.tracingOn() {
		_, span = tp.tracer.Start(ctx, "assessment.derive",
			trace.WithAttributes(attribute.String("assessment.source", source)))
		defer span.End()
	}

	start := time.Now()
	a := derive()
	elapsed := time.Since(start)

	if span != nil {
		for _, rs := range a.RiskScores {
			span.SetAttributes(attribute.String("assessment.risk."+rs.Name, string(rs.Category)))
		}
		span.SetAttributes(
			attribute.Int("assessment.recommendations", len(a.Recommendations)),
			attribute.Int("assessment.alerts", len(a.Alerts)),
		)
	}

	if tp.cfg.metricsOn() {
		tp.assessments.WithLabelValues(source).Inc()
		tp.assessmentDuration.Observe(elapsed.Seconds())
		for _, rs := range a.RiskScores {
			tp.riskCategories.WithLabelValues(rs.Name, string(rs.Category)).Inc()
		}
		for _, al := range a.Alerts {
			tp.alerts.WithLabelValues(string(al.Type)).Inc()
		}
	}
	return a
}
