package auditlog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/periop/internal/platform/auth"
)

var (
	ErrActionRequired  = errors.New("action is required")
	ErrPatientNotFound = errors.New("patient not found")
)

// PatientChecker reports whether the caller in ctx owns patientID. The
// patient service satisfies it.
type PatientChecker interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientChecker
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetPatientChecker wires ownership checks for the HTTP-facing methods.
// It is set after construction because the patient service depends on this
// service as its recorder.
func (s *Service) SetPatientChecker(p PatientChecker) {
	s.patients = p
}

func (s *Service) checkPatient(ctx context.Context, patientID uuid.UUID) error {
	if s.patients == nil {
		return nil
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPatientNotFound
	}
	return nil
}

// Record stores an entry attributed to the caller in ctx.
func (s *Service) Record(ctx context.Context, patientID uuid.UUID, action, details string) (*AuditLog, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, ErrActionRequired
	}
	entry := &AuditLog{
		PatientID: patientID,
		UserID:    auth.UserIDFromContext(ctx),
		UserEmail: auth.EmailFromContext(ctx),
		Action:    action,
		Details:   details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record audit entry: %w", err)
	}
	return entry, nil
}

// Create is Record behind an ownership check.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req CreateRequest) (*AuditLog, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.Record(ctx, patientID, req.Action, req.Details)
}

// List returns the patient's entries, newest first.
func (s *Service) List(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*AuditLog, int, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
