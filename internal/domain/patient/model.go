package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/periop/internal/domain/assessment"
)

// Patient is a stored patient record owned by one user. The embedded record
// holds the normalized demographics and the merged recommendation checklist
// as of the last write.
type Patient struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	assessment.PatientRecord
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecommendationUpdate is the body of PATCH /patients/:id/recommendations/:recId.
type RecommendationUpdate struct {
	Checked bool `json:"checked"`
}

// NotesUpdate is the body of PUT /patients/:id/notes.
type NotesUpdate struct {
	ClinicianNotes string `json:"clinicianNotes"`
}

// AlertsResponse is the body returned by POST /assessments/alerts.
type AlertsResponse struct {
	Alerts []assessment.CriticalAlert `json:"alerts"`
}
