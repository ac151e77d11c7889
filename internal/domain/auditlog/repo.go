package auditlog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for audit log entries.
type Repository interface {
	Create(ctx context.Context, entry *AuditLog) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*AuditLog, int, error)
}
