package assessment

import (
	"strconv"
	"strings"
)

// recommendationRule pairs a fixed rule ordinal with its trigger. The
// ordinal, not the rule's position among fired rules, becomes the
// recommendation ID so that checked state follows the same item across
// regenerations.
type recommendationRule struct {
	ordinal  int
	text     string
	category RecommendationCategory
	match    func(r *PatientRecord, scores scoreIndex) bool
}

// scoreIndex looks risk scores up by name.
type scoreIndex map[string]RiskScore

func indexScores(scores []RiskScore) scoreIndex {
	idx := make(scoreIndex, len(scores))
	for _, s := range scores {
		if _, ok := idx[s.Name]; !ok {
			idx[s.Name] = s
		}
	}
	return idx
}

func (idx scoreIndex) category(name string) (RiskCategory, bool) {
	s, ok := idx[name]
	return s.Category, ok
}

const (
	TextEKG         = "EKG"
	TextCBC         = "CBC (Complete Blood Count)"
	TextINR         = "INR (International Normalized Ratio)"
	TextCMP         = "CMP (Comprehensive Metabolic Panel)"
	TextHbA1c       = "HbA1c"
	TextSleepStudy  = "Sleep Study (if not already diagnosed/managed)"
	TextOBClearance = "OB Clearance / Pregnancy Test"
	TextCardiology  = "Cardiology Consultation"
	TextPulmonology = "Pulmonology Consultation"
)

var recommendationRules = []recommendationRule{
	{
		ordinal: 1, text: TextEKG, category: CategoryPreOpTest,
		match: func(r *PatientRecord, idx scoreIndex) bool {
			rcri, ok := idx[ScoreRCRI]
			return r.Demographics.Age >= 50 || (ok && rcri.Score.Value > 0)
		},
	},
	{
		ordinal: 2, text: TextCBC, category: CategoryPreOpTest,
		match: func(r *PatientRecord, _ scoreIndex) bool {
			return conditionMentions("anemia")(r) || takesMedicationFold("warfarin", "aspirin")(r)
		},
	},
	{
		ordinal: 3, text: TextINR, category: CategoryPreOpTest,
		match: func(r *PatientRecord, _ scoreIndex) bool {
			return takesMedicationFold("warfarin", "clopidogrel", "rivaroxaban")(r)
		},
	},
	{
		ordinal: 4, text: TextCMP, category: CategoryPreOpTest,
		match: func(r *PatientRecord, _ scoreIndex) bool {
			return hasConditionFold("type 2 diabetes", "hypertension", "kidney disease")(r)
		},
	},
	{
		ordinal: 5, text: TextHbA1c, category: CategoryPreOpTest,
		match: func(r *PatientRecord, _ scoreIndex) bool {
			return hasConditionFold("type 2 diabetes")(r)
		},
	},
	{
		ordinal: 6, text: TextSleepStudy, category: CategoryConsultation,
		match: func(_ *PatientRecord, idx scoreIndex) bool {
			c, ok := idx.category(ScoreSTOPBang)
			return ok && (c == RiskModerate || c == RiskHigh)
		},
	},
	{
		ordinal: 7, text: TextOBClearance, category: CategoryPreOpTest,
		match: func(r *PatientRecord, _ scoreIndex) bool {
			d := r.Demographics
			return d.Gender == GenderFemale && d.Age >= 12 && d.Age <= 50
		},
	},
	{
		ordinal: 8, text: TextCardiology, category: CategoryConsultation,
		match: func(_ *PatientRecord, idx scoreIndex) bool {
			c, ok := idx.category(ScoreRCRI)
			return ok && c == RiskHigh
		},
	},
	{
		ordinal: 9, text: TextPulmonology, category: CategoryConsultation,
		match: func(r *PatientRecord, idx scoreIndex) bool {
			if conditionMentions("copd", "severe asthma")(r) {
				return true
			}
			asa, ok := idx[ScoreASA]
			return ok && asa.Category == RiskHigh && strings.Contains(asa.Details, "Obstructive Sleep Apnea")
		},
	},
}

// RecommendationID returns the stable ID for a rule ordinal.
func RecommendationID(ordinal int) string {
	return "rec-" + strconv.Itoa(ordinal)
}

// GenerateRecommendations evaluates the recommendation rules in order
// against a normalized record and its risk scores. Every item starts
// unchecked and a given text appears at most once.
func GenerateRecommendations(r PatientRecord, scores []RiskScore) []Recommendation {
	idx := indexScores(scores)
	recs := make([]Recommendation, 0, len(recommendationRules))
	seen := make(map[string]bool, len(recommendationRules))
	for _, rule := range recommendationRules {
		if seen[rule.text] || !rule.match(&r, idx) {
			continue
		}
		seen[rule.text] = true
		recs = append(recs, Recommendation{
			ID:       RecommendationID(rule.ordinal),
			Text:     rule.text,
			Category: rule.category,
		})
	}
	return recs
}

// MergeRecommendationState copies the checked flag from prior onto fresh
// items with the same ID. Items without a prior match stay unchecked, and
// prior items that no longer apply are dropped.
func MergeRecommendationState(fresh, prior []Recommendation) []Recommendation {
	checked := make(map[string]bool, len(prior))
	for _, p := range prior {
		if _, dup := checked[p.ID]; !dup {
			checked[p.ID] = p.Checked
		}
	}
	out := make([]Recommendation, len(fresh))
	for i, rec := range fresh {
		rec.Checked = checked[rec.ID]
		out[i] = rec
	}
	return out
}
