package assessment

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	if err := Validate(samplePatient()); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	rec := PatientRecord{
		Demographics: Demographics{DOB: "03/02/1958", Gender: "Unknown", HeightCm: 0, WeightKg: 600},
		AirwayExam:   AirwayExam{MouthOpeningCm: floatPtr(-1)},
	}
	err := Validate(rec)
	if err == nil {
		t.Fatal("expected error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, want := range []string{
		"patient name is required",
		"invalid date format",
		"invalid gender",
		"height must be between",
		"weight must be between",
		"invalid smoking status",
		"invalid mallampati score",
		"mouth opening cannot be negative",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidate_MissingDOB(t *testing.T) {
	rec := samplePatient()
	rec.Demographics.DOB = ""
	err := Validate(rec)
	if err == nil || !strings.Contains(err.Error(), "date of birth is required") {
		t.Fatalf("expected dob error, got %v", err)
	}
}
