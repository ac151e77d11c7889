package assessment

import (
	"strconv"
	"strings"
)

type alertRule struct {
	kind    AlertType
	match   predicate
	message func(r *PatientRecord) string
}

// formatCm renders a measurement without trailing zeros: 5 not 5.0, 2.5 not 2.50.
func formatCm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func below(v *float64, limit float64) bool {
	return v != nil && *v < limit
}

var alertRules = []alertRule{
	{
		kind:    AlertCritical,
		match:   takesMedicationFold("warfarin", "clopidogrel", "rivaroxaban", "apixaban", "dabigatran"),
		message: fixed("Patient is on anticoagulants. Assess bleeding risk and consult with prescribing physician."),
	},
	{
		kind:  AlertWarning,
		match: func(r *PatientRecord) bool { return len(r.MedicalHistory.Allergies) > 0 },
		message: func(r *PatientRecord) string {
			return "Patient has known allergies: " + strings.Join(r.MedicalHistory.Allergies, ", ") + ". Review for anesthetic agents."
		},
	},
	{
		kind:    AlertCritical,
		match:   hasConditionFold("obstructive sleep apnea"),
		message: fixed("Patient has Obstructive Sleep Apnea. High risk for airway complications. Consider CPAP/BiPAP post-op."),
	},
	{
		kind: AlertCritical,
		match: func(r *PatientRecord) bool {
			m := r.AirwayExam.MallampatiScore
			return m == MallampatiIII || m == MallampatiIV
		},
		message: func(r *PatientRecord) string {
			return "High Mallampati score (" + string(r.AirwayExam.MallampatiScore) + "). Potential difficult airway."
		},
	},
	{
		kind:  AlertCritical,
		match: func(r *PatientRecord) bool { return below(r.AirwayExam.ThyromentalDistanceCm, 6) },
		message: func(r *PatientRecord) string {
			return "Short thyromental distance (" + formatCm(*r.AirwayExam.ThyromentalDistanceCm) + " cm). Potential difficult airway."
		},
	},
	{
		kind:  AlertCritical,
		match: func(r *PatientRecord) bool { return below(r.AirwayExam.MouthOpeningCm, 3) },
		message: func(r *PatientRecord) string {
			return "Limited mouth opening (" + formatCm(*r.AirwayExam.MouthOpeningCm) + " cm). Potential difficult airway."
		},
	},
	{
		kind: AlertCritical,
		match: func(r *PatientRecord) bool {
			n := r.AirwayExam.NeckMobility
			return n == NeckLimited || n == NeckSeverelyLimited
		},
		message: func(r *PatientRecord) string {
			return "Limited neck mobility (" + string(r.AirwayExam.NeckMobility) + "). Potential difficult airway."
		},
	},
	{
		kind: AlertWarning,
		match: func(r *PatientRecord) bool {
			return hasConditionFold("hypertension")(r) && !takesMedicationFold("lisinopril", "amlodipine")(r)
		},
		message: fixed("Patient has hypertension, but no antihypertensive medication listed. Consider if uncontrolled."),
	},
	{
		kind: AlertWarning,
		match: func(r *PatientRecord) bool {
			return hasConditionFold("type 2 diabetes")(r) && !takesMedicationFold("metformin", "insulin")(r)
		},
		message: fixed("Patient has diabetes, but no diabetic medication listed. Consider if uncontrolled."),
	},
}

// GenerateCriticalAlerts flags dangerous findings on a normalized record.
// Alerts do not depend on risk scores and are numbered alert-1, alert-2, ...
// in the order they fire.
func GenerateCriticalAlerts(r PatientRecord) []CriticalAlert {
	alerts := make([]CriticalAlert, 0, len(alertRules))
	for _, rule := range alertRules {
		if !rule.match(&r) {
			continue
		}
		alerts = append(alerts, CriticalAlert{
			ID:      "alert-" + strconv.Itoa(len(alerts)+1),
			Message: rule.message(&r),
			Type:    rule.kind,
		})
	}
	return alerts
}
