package assessment

import (
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// dobLayouts are tried in order when parsing a date of birth.
var dobLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDOB returns the date of birth as a UTC midnight instant.
func parseDOB(dob string) (time.Time, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return time.Time{}, false
	}
	for _, layout := range dobLayouts {
		t, err := time.Parse(layout, dob)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// NormalizeDOB reformats a date of birth to YYYY-MM-DD. Empty and
// unparsable values are returned unchanged.
func NormalizeDOB(dob string) string {
	t, ok := parseDOB(dob)
	if !ok {
		return dob
	}
	return t.Format(dateLayout)
}

// CalculateAge returns whole years elapsed since dob as of now.
func CalculateAge(dob string) int {
	return AgeAt(dob, time.Now())
}

// AgeAt returns whole calendar years between dob and now. Empty, unparsable
// and future dates yield 0.
func AgeAt(dob string, now time.Time) int {
	born, ok := parseDOB(dob)
	if !ok {
		return 0
	}
	now = now.UTC()
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// CalculateBMI returns weight / height² with height in metres, or 0 when
// either measurement is not positive.
func CalculateBMI(heightCm, weightKg float64) float64 {
	if !(heightCm > 0) || !(weightKg > 0) || math.IsInf(heightCm, 0) || math.IsInf(weightKg, 0) {
		return 0
	}
	m := heightCm / 100
	return weightKg / (m * m)
}

// Normalize returns a copy of rec with the date of birth canonicalised and
// age and BMI recomputed as of now.
func Normalize(rec PatientRecord, now time.Time) PatientRecord {
	out := rec.Clone()
	out.Demographics.DOB = NormalizeDOB(rec.Demographics.DOB)
	out.Demographics.Age = AgeAt(out.Demographics.DOB, now)
	out.Demographics.BMI = CalculateBMI(out.Demographics.HeightCm, out.Demographics.WeightKg)
	return out
}
