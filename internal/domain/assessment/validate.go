package assessment

import (
	"errors"
	"fmt"
	"regexp"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var validGenders = map[Gender]bool{GenderMale: true, GenderFemale: true, GenderOther: true}

var validSmoking = map[SmokingStatus]bool{SmokingNever: true, SmokingFormer: true, SmokingCurrent: true}

var validAlcohol = map[AlcoholUse]bool{
	AlcoholNone: true, AlcoholSocial: true, AlcoholModerate: true, AlcoholHeavy: true,
}

var validDrugUse = map[DrugUse]bool{DrugNone: true, DrugRecreational: true, DrugIV: true}

var validMallampati = map[Mallampati]bool{
	MallampatiI: true, MallampatiII: true, MallampatiIII: true, MallampatiIV: true, MallampatiNone: true,
}

var validNeckMobility = map[NeckMobility]bool{
	NeckNormal: true, NeckLimited: true, NeckSeverelyLimited: true, NeckMobilityNone: true,
}

// ValidationError collects every field problem found in a record.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid patient record: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a record submitted for storage. Derivation itself never
// needs it.
func Validate(rec PatientRecord) error {
	var errs []error
	d := rec.Demographics
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("patient name is required"))
	}
	switch {
	case d.DOB == "":
		errs = append(errs, fmt.Errorf("date of birth is required"))
	case !isoDate.MatchString(d.DOB):
		errs = append(errs, fmt.Errorf("invalid date format %q (YYYY-MM-DD)", d.DOB))
	}
	if !validGenders[d.Gender] {
		errs = append(errs, fmt.Errorf("invalid gender %q", d.Gender))
	}
	if d.HeightCm < 1 || d.HeightCm > 300 {
		errs = append(errs, fmt.Errorf("height must be between 1 and 300 cm"))
	}
	if d.WeightKg < 1 || d.WeightKg > 500 {
		errs = append(errs, fmt.Errorf("weight must be between 1 and 500 kg"))
	}

	h := rec.MedicalHistory
	if !validSmoking[h.SmokingStatus] {
		errs = append(errs, fmt.Errorf("invalid smoking status %q", h.SmokingStatus))
	}
	if !validAlcohol[h.AlcoholUse] {
		errs = append(errs, fmt.Errorf("invalid alcohol use %q", h.AlcoholUse))
	}
	if !validDrugUse[h.DrugUse] {
		errs = append(errs, fmt.Errorf("invalid drug use %q", h.DrugUse))
	}

	a := rec.AirwayExam
	if !validMallampati[a.MallampatiScore] {
		errs = append(errs, fmt.Errorf("invalid mallampati score %q", a.MallampatiScore))
	}
	if !validNeckMobility[a.NeckMobility] {
		errs = append(errs, fmt.Errorf("invalid neck mobility %q", a.NeckMobility))
	}
	if a.ThyromentalDistanceCm != nil && *a.ThyromentalDistanceCm < 0 {
		errs = append(errs, fmt.Errorf("thyromental distance cannot be negative"))
	}
	if a.MouthOpeningCm != nil && *a.MouthOpeningCm < 0 {
		errs = append(errs, fmt.Errorf("mouth opening cannot be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Err: errors.Join(errs...)}
}
