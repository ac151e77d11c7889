package assessment

import (
	"fmt"
	"strings"
)

// floorRule raises a class score to at least floor when it matches.
type floorRule struct {
	factor string
	floor  int
	match  predicate
}

// pointRule adds (or, for METs, subtracts) points when it matches. factor
// renders the detail text and may embed record values.
type pointRule struct {
	points int
	match  predicate
	factor func(r *PatientRecord) string
}

func fixed(s string) func(*PatientRecord) string {
	return func(*PatientRecord) string { return s }
}

// applyPoints evaluates rules in order and returns the point total and the
// matched factors in rule order.
func applyPoints(rules []pointRule, r *PatientRecord) (int, []string) {
	total := 0
	var factors []string
	for _, rule := range rules {
		if rule.match(r) {
			total += rule.points
			factors = append(factors, rule.factor(r))
		}
	}
	return total, factors
}

func describe(prefix string, factors []string, empty string) string {
	if len(factors) == 0 {
		return empty
	}
	return prefix + strings.Join(factors, ", ")
}

var asaRules = []floorRule{
	{factor: "Hypertension", floor: 2, match: hasCondition("Hypertension")},
	{factor: "Type 2 Diabetes", floor: 2, match: hasCondition("Type 2 Diabetes")},
	{factor: "Obstructive Sleep Apnea", floor: 3, match: hasCondition("Obstructive Sleep Apnea")},
	{factor: "BMI >= 30", floor: 2, match: func(r *PatientRecord) bool { return r.Demographics.BMI >= 30 }},
	{factor: "Current smoker", floor: 2, match: func(r *PatientRecord) bool {
		return r.MedicalHistory.SmokingStatus == SmokingCurrent
	}},
	{factor: "Heavy alcohol use", floor: 3, match: func(r *PatientRecord) bool {
		return r.MedicalHistory.AlcoholUse == AlcoholHeavy
	}},
}

// CalculateASA assigns the ASA physical status class as the highest floor
// among matched comorbidities, starting from class 1.
func CalculateASA(r PatientRecord) RiskScore {
	class := 1
	var factors []string
	for _, rule := range asaRules {
		if !rule.match(&r) {
			continue
		}
		if rule.floor > class {
			class = rule.floor
		}
		factors = append(factors, rule.factor)
	}

	category := RiskLow
	switch {
	case class >= 3:
		category = RiskHigh
	case class == 2:
		category = RiskModerate
	}

	return RiskScore{
		Name:     ScoreASA,
		Score:    Score{Value: class, Label: fmt.Sprintf("ASA %d", class)},
		Category: category,
		Details:  describe("Conditions: ", factors, "No significant comorbidities."),
		Factors:  factors,
	}
}

var hasOSA = hasCondition("Obstructive Sleep Apnea")

// A diagnosed OSA stands in for snoring, tiredness, observed apnea and
// pressure, so hypertension only counts without it.
var stopBangRules = []pointRule{
	{points: 4, match: hasOSA, factor: fixed("Diagnosed OSA (implies S, T, O, P)")},
	{
		points: 1,
		match:  func(r *PatientRecord) bool { return !hasOSA(r) && hasCondition("Hypertension")(r) },
		factor: fixed("Hypertension (P)"),
	},
	{
		points: 1,
		match:  func(r *PatientRecord) bool { return r.Demographics.BMI > 27 },
		factor: func(r *PatientRecord) string { return fmt.Sprintf("BMI > 27 (%.1f)", r.Demographics.BMI) },
	},
	{
		points: 1,
		match:  func(r *PatientRecord) bool { return r.Demographics.Age > 50 },
		factor: func(r *PatientRecord) string { return fmt.Sprintf("Age > 50 (%d)", r.Demographics.Age) },
	},
	{
		points: 1,
		match:  func(r *PatientRecord) bool { return r.Demographics.Gender == GenderMale },
		factor: fixed("Male gender (G)"),
	},
}

// CalculateSTOPBang scores obstructive sleep apnea risk.
func CalculateSTOPBang(r PatientRecord) RiskScore {
	score, factors := applyPoints(stopBangRules, &r)

	category := RiskLow
	switch {
	case score >= 5:
		category = RiskHigh
	case score >= 3:
		category = RiskModerate
	}

	return RiskScore{
		Name:     ScoreSTOPBang,
		Score:    Score{Value: score},
		Category: category,
		Details:  describe("Factors: ", factors, "No significant STOP-Bang factors identified."),
		Factors:  factors,
	}
}

// Insulin is matched case-sensitively, unlike the condition checks.
var rcriRules = []pointRule{
	{points: 1, match: conditionMentions("heart disease", "angina", "myocardial infarction"), factor: fixed("Ischemic Heart Disease")},
	{points: 1, match: conditionMentions("heart failure"), factor: fixed("Congestive Heart Failure")},
	{points: 1, match: conditionMentions("stroke", "tia"), factor: fixed("Cerebrovascular Disease")},
	{
		points: 1,
		match:  func(r *PatientRecord) bool { return containsExact(r.MedicalHistory.Medications, "Insulin") },
		factor: fixed("Insulin use"),
	},
}

// CalculateRCRI scores perioperative cardiac risk.
func CalculateRCRI(r PatientRecord) RiskScore {
	score, factors := applyPoints(rcriRules, &r)

	category := RiskLow
	switch {
	case score >= 3:
		category = RiskHigh
	case score >= 1:
		category = RiskModerate
	}

	return RiskScore{
		Name:     ScoreRCRI,
		Score:    Score{Value: score},
		Category: category,
		Details:  describe("Factors: ", factors, "No significant RCRI factors identified."),
		Factors:  factors,
	}
}

const (
	baselineMETs = 10
	minimumMETs  = 1
)

// Each deduction applies at most once regardless of how many of its
// conditions are present.
var metsDeductions = []pointRule{
	{points: 2, match: func(r *PatientRecord) bool { return r.Demographics.Age >= 70 }, factor: fixed("Age >= 70")},
	{
		points: 4,
		match:  either(hasCondition("Congestive Heart Failure"), hasCondition("COPD")),
		factor: fixed("Severe cardiac/pulmonary condition"),
	},
	{
		points: 1,
		match:  either(hasCondition("Hypertension"), hasCondition("Type 2 Diabetes")),
		factor: fixed("Chronic conditions (HTN, DM)"),
	},
	{points: 2, match: func(r *PatientRecord) bool { return r.Demographics.BMI >= 35 }, factor: fixed("BMI >= 35")},
}

// CalculateMETs infers functional capacity in metabolic equivalents.
func CalculateMETs(r PatientRecord) RiskScore {
	deduction, factors := applyPoints(metsDeductions, &r)
	mets := baselineMETs - deduction
	if mets < minimumMETs {
		mets = minimumMETs
	}

	category := RiskLow
	switch {
	case mets < 4:
		category = RiskHigh
	case mets < 10:
		category = RiskModerate
	}

	return RiskScore{
		Name:     ScoreMETs,
		Score:    Score{Value: mets, Label: fmt.Sprintf("%d METs", mets)},
		Category: category,
		Details:  describe("Inferred factors: ", factors, "Good functional capacity inferred."),
		Factors:  factors,
	}
}

// CalculateRiskScores runs all four scorers in their fixed order: ASA,
// STOP-Bang, RCRI, METs.
func CalculateRiskScores(r PatientRecord) []RiskScore {
	return []RiskScore{
		CalculateASA(r),
		CalculateSTOPBang(r),
		CalculateRCRI(r),
		CalculateMETs(r),
	}
}
