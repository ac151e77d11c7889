package assessment

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type SmokingStatus string

const (
	SmokingNever   SmokingStatus = "Never"
	SmokingFormer  SmokingStatus = "Former"
	SmokingCurrent SmokingStatus = "Current"
)

type AlcoholUse string

const (
	AlcoholNone     AlcoholUse = "None"
	AlcoholSocial   AlcoholUse = "Social"
	AlcoholModerate AlcoholUse = "Moderate"
	AlcoholHeavy    AlcoholUse = "Heavy"
)

type DrugUse string

const (
	DrugNone         DrugUse = "None"
	DrugRecreational DrugUse = "Recreational"
	DrugIV           DrugUse = "IV"
)

type Mallampati string

const (
	MallampatiI    Mallampati = "I"
	MallampatiII   Mallampati = "II"
	MallampatiIII  Mallampati = "III"
	MallampatiIV   Mallampati = "IV"
	MallampatiNone Mallampati = "none"
)

type NeckMobility string

const (
	NeckNormal          NeckMobility = "Normal"
	NeckLimited         NeckMobility = "Limited"
	NeckSeverelyLimited NeckMobility = "Severely Limited"
	NeckMobilityNone    NeckMobility = "none"
)

// Demographics holds identifying data plus the derived age and BMI. Age and
// BMI are recomputed on every derivation and are never authoritative input.
type Demographics struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	DOB      string  `json:"dob"`
	Age      int     `json:"age"`
	Gender   Gender  `json:"gender"`
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
	BMI      float64 `json:"bmi"`
}

type MedicalHistory struct {
	Conditions    []string      `json:"conditions"`
	Surgeries     []string      `json:"surgeries"`
	Allergies     []string      `json:"allergies"`
	Medications   []string      `json:"medications"`
	SmokingStatus SmokingStatus `json:"smokingStatus"`
	AlcoholUse    AlcoholUse    `json:"alcoholUse"`
	DrugUse       DrugUse       `json:"drugUse"`
}

// AirwayExam holds the bedside airway findings. Nil distances mean the
// measurement was not taken.
type AirwayExam struct {
	MallampatiScore       Mallampati   `json:"mallampatiScore"`
	ThyromentalDistanceCm *float64     `json:"thyromentalDistanceCm"`
	MouthOpeningCm        *float64     `json:"mouthOpeningCm"`
	NeckMobility          NeckMobility `json:"neckMobility"`
}

// PatientRecord is the unit of input and output of the assessment pipeline.
type PatientRecord struct {
	Demographics    Demographics     `json:"demographics"`
	MedicalHistory  MedicalHistory   `json:"medicalHistory"`
	AirwayExam      AirwayExam       `json:"airwayExam"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	ClinicianNotes  string           `json:"clinicianNotes,omitempty"`
}

// Clone returns a deep copy so derivation never aliases caller slices.
func (r PatientRecord) Clone() PatientRecord {
	out := r
	out.MedicalHistory.Conditions = cloneStrings(r.MedicalHistory.Conditions)
	out.MedicalHistory.Surgeries = cloneStrings(r.MedicalHistory.Surgeries)
	out.MedicalHistory.Allergies = cloneStrings(r.MedicalHistory.Allergies)
	out.MedicalHistory.Medications = cloneStrings(r.MedicalHistory.Medications)
	if r.AirwayExam.ThyromentalDistanceCm != nil {
		v := *r.AirwayExam.ThyromentalDistanceCm
		out.AirwayExam.ThyromentalDistanceCm = &v
	}
	if r.AirwayExam.MouthOpeningCm != nil {
		v := *r.AirwayExam.MouthOpeningCm
		out.AirwayExam.MouthOpeningCm = &v
	}
	if r.Recommendations != nil {
		out.Recommendations = make([]Recommendation, len(r.Recommendations))
		copy(out.Recommendations, r.Recommendations)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskModerate RiskCategory = "Moderate"
	RiskHigh     RiskCategory = "High"
)

// Score names. Recommendation rules look scores up by these names.
const (
	ScoreASA      = "ASA Physical Status"
	ScoreSTOPBang = "STOP-Bang Score (OSA Risk)"
	ScoreRCRI     = "RCRI (Cardiac Risk)"
	ScoreMETs     = "METs (Functional Capacity)"
)

// Score is the numeric result of a scorer with an optional display label.
// It encodes to JSON as the label when one is set and as the bare number
// otherwise.
type Score struct {
	Value int
	Label string
}

func (s Score) String() string {
	if s.Label != "" {
		return s.Label
	}
	return strconv.Itoa(s.Value)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.Label != "" {
		return json.Marshal(s.Label)
	}
	return json.Marshal(s.Value)
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Score{Value: n}
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("score must be a number or a string: %w", err)
	}
	var v int
	// "ASA 3" and "4 METs" both carry a single integer.
	for _, format := range []string{"ASA %d", "%d METs", "%d"} {
		if _, err := fmt.Sscanf(label, format, &v); err == nil {
			break
		}
	}
	*s = Score{Value: v, Label: label}
	return nil
}

// RiskScore is produced fresh on every run and never merged across runs.
type RiskScore struct {
	Name     string       `json:"name"`
	Score    Score        `json:"score"`
	Category RiskCategory `json:"category"`
	Details  string       `json:"details,omitempty"`
	Factors  []string     `json:"factors,omitempty"`
}

type RecommendationCategory string

const (
	CategoryPreOpTest    RecommendationCategory = "Pre-op Test"
	CategoryConsultation RecommendationCategory = "Consultation"
	CategoryOther        RecommendationCategory = "Other"
)

// Recommendation is a checklist item. Checked is user state carried across
// regenerations by ID.
type Recommendation struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Category RecommendationCategory `json:"category"`
	Checked  bool                   `json:"checked"`
}

type AlertType string

const (
	AlertWarning  AlertType = "Warning"
	AlertCritical AlertType = "Critical"
)

// CriticalAlert is regenerated wholesale on every run.
type CriticalAlert struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Type    AlertType `json:"type"`
}

// Result is the output of DerivePatientAssessment.
type Result struct {
	Record          PatientRecord    `json:"record"`
	RiskScores      []RiskScore      `json:"riskScores"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Assessment bundles a derivation result with the alerts for the same
// normalized record.
type Assessment struct {
	Record          PatientRecord    `json:"record"`
	RiskScores      []RiskScore      `json:"riskScores"`
	Recommendations []Recommendation `json:"recommendations"`
	Alerts          []CriticalAlert  `json:"alerts"`
}
