// Package assessment derives perioperative risk from a patient record:
// normalized demographics, four risk scores (ASA, STOP-Bang, RCRI, METs), a
// pre-operative recommendation checklist and critical alerts.
//
// Every function in this package is pure. Malformed input degrades to
// zero values instead of failing, so callers never need to handle errors
// from derivation itself; Validate exists for callers that want to reject
// bad input before it is stored.
package assessment

import "time"

// Clock returns the current instant. Age depends on it.
type Clock func() time.Time

// DerivePatientAssessment normalizes rec, scores it and regenerates its
// recommendations, carrying checked state over from rec.Recommendations.
func DerivePatientAssessment(rec PatientRecord) Result {
	return DeriveAt(rec, time.Now())
}

// DeriveAt is DerivePatientAssessment with an explicit current instant.
func DeriveAt(rec PatientRecord, now time.Time) Result {
	normalized := Normalize(rec, now)
	scores := CalculateRiskScores(normalized)
	recs := MergeRecommendationState(GenerateRecommendations(normalized, scores), rec.Recommendations)
	normalized.Recommendations = recs
	return Result{
		Record:          normalized,
		RiskScores:      scores,
		Recommendations: recs,
	}
}

// Assess runs the derivation and computes alerts over the same normalized
// record.
func Assess(rec PatientRecord, clock Clock) Assessment {
	if clock == nil {
		clock = time.Now
	}
	res := DeriveAt(rec, clock())
	return Assessment{
		Record:          res.Record,
		RiskScores:      res.RiskScores,
		Recommendations: res.Recommendations,
		Alerts:          GenerateCriticalAlerts(res.Record),
	}
}
