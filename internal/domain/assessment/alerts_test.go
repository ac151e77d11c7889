package assessment

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestGenerateCriticalAlerts_Allergies(t *testing.T) {
	rec := PatientRecord{MedicalHistory: MedicalHistory{Allergies: []string{"Penicillin", "Latex"}}}
	alerts := GenerateCriticalAlerts(rec)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Type != AlertWarning || a.ID != "alert-1" {
		t.Errorf("unexpected alert %+v", a)
	}
	if !strings.Contains(a.Message, "Penicillin, Latex") {
		t.Errorf("message should list allergies verbatim: %q", a.Message)
	}
}

func TestGenerateCriticalAlerts_Rules(t *testing.T) {
	tests := []struct {
		name    string
		rec     PatientRecord
		message string
		kind    AlertType
	}{
		{
			"anticoagulant",
			PatientRecord{MedicalHistory: MedicalHistory{Medications: []string{"Apixaban"}}},
			"Patient is on anticoagulants. Assess bleeding risk and consult with prescribing physician.",
			AlertCritical,
		},
		{
			"osa any case",
			withConditions("OBSTRUCTIVE SLEEP APNEA"),
			"Patient has Obstructive Sleep Apnea. High risk for airway complications. Consider CPAP/BiPAP post-op.",
			AlertCritical,
		},
		{
			"mallampati",
			PatientRecord{AirwayExam: AirwayExam{MallampatiScore: MallampatiIV}},
			"High Mallampati score (IV). Potential difficult airway.",
			AlertCritical,
		},
		{
			"thyromental",
			PatientRecord{AirwayExam: AirwayExam{ThyromentalDistanceCm: floatPtr(5.5)}},
			"Short thyromental distance (5.5 cm). Potential difficult airway.",
			AlertCritical,
		},
		{
			"mouth opening whole number",
			PatientRecord{AirwayExam: AirwayExam{MouthOpeningCm: floatPtr(2)}},
			"Limited mouth opening (2 cm). Potential difficult airway.",
			AlertCritical,
		},
		{
			"neck",
			PatientRecord{AirwayExam: AirwayExam{NeckMobility: NeckSeverelyLimited}},
			"Limited neck mobility (Severely Limited). Potential difficult airway.",
			AlertCritical,
		},
		{
			"untreated hypertension",
			withConditions("Hypertension"),
			"Patient has hypertension, but no antihypertensive medication listed. Consider if uncontrolled.",
			AlertWarning,
		},
		{
			"untreated diabetes",
			withConditions("type 2 diabetes"),
			"Patient has diabetes, but no diabetic medication listed. Consider if uncontrolled.",
			AlertWarning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := GenerateCriticalAlerts(tt.rec)
			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %+v", alerts)
			}
			if alerts[0].Message != tt.message {
				t.Errorf("message = %q, want %q", alerts[0].Message, tt.message)
			}
			if alerts[0].Type != tt.kind {
				t.Errorf("type = %q, want %q", alerts[0].Type, tt.kind)
			}
		})
	}
}

func TestGenerateCriticalAlerts_Suppressed(t *testing.T) {
	tests := []struct {
		name string
		rec  PatientRecord
	}{
		{"treated hypertension", PatientRecord{MedicalHistory: MedicalHistory{
			Conditions: []string{"Hypertension"}, Medications: []string{"LISINOPRIL"},
		}}},
		{"treated diabetes", PatientRecord{MedicalHistory: MedicalHistory{
			Conditions: []string{"Type 2 Diabetes"}, Medications: []string{"Insulin"},
		}}},
		{"thyromental at limit", PatientRecord{AirwayExam: AirwayExam{ThyromentalDistanceCm: floatPtr(6)}}},
		{"mouth opening at limit", PatientRecord{AirwayExam: AirwayExam{MouthOpeningCm: floatPtr(3)}}},
		{"absent airway measurements", PatientRecord{AirwayExam: AirwayExam{MallampatiScore: MallampatiNone, NeckMobility: NeckMobilityNone}}},
		{"aspirin is not an anticoagulant", PatientRecord{MedicalHistory: MedicalHistory{Medications: []string{"Aspirin"}}}},
		{"osa substring does not match", withConditions("Suspected obstructive sleep apnea")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if alerts := GenerateCriticalAlerts(tt.rec); len(alerts) != 0 {
				t.Errorf("expected no alerts, got %+v", alerts)
			}
		})
	}
}

func TestGenerateCriticalAlerts_OrderAndIDs(t *testing.T) {
	rec := PatientRecord{
		MedicalHistory: MedicalHistory{
			Conditions:  []string{"Hypertension", "Obstructive Sleep Apnea"},
			Medications: []string{"warfarin"},
			Allergies:   []string{"latex"},
		},
		AirwayExam: AirwayExam{MallampatiScore: MallampatiIII, NeckMobility: NeckLimited},
	}
	alerts := GenerateCriticalAlerts(rec)
	wantPrefixes := []string{
		"Patient is on anticoagulants",
		"Patient has known allergies: latex.",
		"Patient has Obstructive Sleep Apnea",
		"High Mallampati score (III)",
		"Limited neck mobility (Limited)",
		"Patient has hypertension",
	}
	if len(alerts) != len(wantPrefixes) {
		t.Fatalf("expected %d alerts, got %d: %+v", len(wantPrefixes), len(alerts), alerts)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(alerts[i].Message, prefix) {
			t.Errorf("alerts[%d] = %q, want prefix %q", i, alerts[i].Message, prefix)
		}
		if want := "alert-" + string(rune('1'+i)); alerts[i].ID != want {
			t.Errorf("alerts[%d].ID = %q, want %q", i, alerts[i].ID, want)
		}
	}
}
