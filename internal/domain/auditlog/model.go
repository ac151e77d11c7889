package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded automatically by the patient service.
const (
	ActionPatientCreated      = "Patient Created"
	ActionPatientUpdated      = "Patient Updated"
	ActionRecommendationCheck = "Recommendation Toggled"
	ActionNotesUpdated        = "Clinician Notes Updated"
)

// AuditLog is a user-visible history entry for one patient.
type AuditLog struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateRequest is the body of POST /patients/:id/audit-logs.
type CreateRequest struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}
