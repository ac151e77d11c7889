package assessment

import "strings"

// predicate reports whether a rule applies to a normalized record.
type predicate func(r *PatientRecord) bool

// containsExact is case-sensitive list membership, mirroring raw data entry.
func containsExact(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// containsFold is case-insensitive list membership.
func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.ToLower(s) == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// containsAnyFold reports whether any of wants is a case-insensitive member.
func containsAnyFold(list []string, wants ...string) bool {
	for _, w := range wants {
		if containsFold(list, w) {
			return true
		}
	}
	return false
}

// anySubstringFold reports whether any entry contains any of subs,
// ignoring case.
func anySubstringFold(list []string, subs ...string) bool {
	for _, s := range list {
		lower := strings.ToLower(s)
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

func hasCondition(name string) predicate {
	return func(r *PatientRecord) bool { return containsExact(r.MedicalHistory.Conditions, name) }
}

func hasConditionFold(names ...string) predicate {
	return func(r *PatientRecord) bool { return containsAnyFold(r.MedicalHistory.Conditions, names...) }
}

func conditionMentions(subs ...string) predicate {
	return func(r *PatientRecord) bool { return anySubstringFold(r.MedicalHistory.Conditions, subs...) }
}

func takesMedicationFold(names ...string) predicate {
	return func(r *PatientRecord) bool { return containsAnyFold(r.MedicalHistory.Medications, names...) }
}

func either(preds ...predicate) predicate {
	return func(r *PatientRecord) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}
