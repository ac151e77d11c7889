package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/periop/internal/domain/assessment"
	"github.com/ehr/periop/internal/domain/auditlog"
	"github.com/ehr/periop/internal/platform/auth"
)

var (
	ErrUnauthenticated        = errors.New("no authenticated user")
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// Assessment sources reported to the Observer.
const (
	SourceWrite     = "write"
	SourceStored    = "stored"
	SourceStateless = "stateless"
)

// Recorder stores patient audit trail entries. auditlog.Service satisfies it.
type Recorder interface {
	Record(ctx context.Context, patientID uuid.UUID, action, details string) (*auditlog.AuditLog, error)
}

// Observer wraps each derivation, typically with a span and metrics.
type Observer interface {
	ObserveAssessment(ctx context.Context, source string, derive func() assessment.Assessment) assessment.Assessment
}

type passthrough struct{}

func (passthrough) ObserveAssessment(_ context.Context, _ string, derive func() assessment.Assessment) assessment.Assessment {
	return derive()
}

type Service struct {
	repo     Repository
	recorder Recorder
	observer Observer
	clock    assessment.Clock
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, observer: passthrough{}, logger: logger}
}

// SetRecorder attaches the audit trail. Without one, writes are not audited.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetObserver attaches derivation telemetry.
func (s *Service) SetObserver(o Observer) {
	if o == nil {
		o = passthrough{}
	}
	s.observer = o
}

// SetClock overrides the instant used for age calculation.
func (s *Service) SetClock(c assessment.Clock) {
	s.clock = c
}

func (s *Service) assess(ctx context.Context, source string, rec assessment.PatientRecord) assessment.Assessment {
	return s.observer.ObserveAssessment(ctx, source, func() assessment.Assessment {
		return assessment.Assess(rec, s.clock)
	})
}

func ownerFrom(ctx context.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}

// audit writes a trail entry. Failures are logged and never fail the caller.
func (s *Service) audit(ctx context.Context, patientID uuid.UUID, action, details string) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(ctx, patientID, action, details); err != nil {
		s.logger.Warn().Err(err).
			Str("patient_id", patientID.String()).
			Str("action", action).
			Msg("audit trail write failed")
	}
}

// Create validates rec, derives it and stores the normalized record with its
// recommendation checklist.
func (s *Service) Create(ctx context.Context, rec assessment.PatientRecord) (*Patient, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := assessment.Validate(rec); err != nil {
		return nil, err
	}

	id := uuid.New()
	rec = rec.Clone()
	rec.Demographics.ID = id.String()
	derived := s.assess(ctx, SourceWrite, rec)

	p := &Patient{ID: id, OwnerID: owner, PatientRecord: derived.Record}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.audit(ctx, p.ID, auditlog.ActionPatientCreated, "Created patient "+p.Demographics.Name)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, id)
}

// Exists reports whether the caller owns a patient with id.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthenticated) {
		return false, nil
	}
	return err == nil, err
}

// List returns the caller's patients, newest first, optionally filtered by a
// case-insensitive name fragment.
func (s *Service) List(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, owner, name, limit, offset)
}

// Update replaces the stored record with rec. Checked state is carried over
// from rec.Recommendations, or from the stored checklist when rec has none.
func (s *Service) Update(ctx context.Context, id uuid.UUID, rec assessment.PatientRecord) (*Patient, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assessment.Validate(rec); err != nil {
		return nil, err
	}

	rec = rec.Clone()
	rec.Demographics.ID = id.String()
	if rec.Recommendations == nil {
		rec.Recommendations = existing.Recommendations
	}
	derived := s.assess(ctx, SourceWrite, rec)

	existing.PatientRecord = derived.Record
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.audit(ctx, id, auditlog.ActionPatientUpdated, "Updated patient "+existing.Demographics.Name)
	return existing, nil
}

// Assessment derives the stored record and returns scores, recommendations
// and alerts. Nothing is persisted.
func (s *Service) Assessment(ctx context.Context, id uuid.UUID) (assessment.Assessment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return assessment.Assessment{}, err
	}
	return s.assess(ctx, SourceStored, p.PatientRecord), nil
}

// SetRecommendationChecked toggles one checklist item.
func (s *Service) SetRecommendationChecked(ctx context.Context, id uuid.UUID, recID string, checked bool) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, r := range p.Recommendations {
		if r.ID == recID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrRecommendationNotFound
	}
	recs := make([]assessment.Recommendation, len(p.Recommendations))
	copy(recs, p.Recommendations)
	recs[idx].Checked = checked
	p.Recommendations = recs

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	state := "pending"
	if checked {
		state = "completed"
	}
	s.audit(ctx, id, auditlog.ActionRecommendationCheck, fmt.Sprintf("Marked %q as %s", recs[idx].Text, state))
	return p, nil
}

// UpdateNotes replaces the clinician notes.
func (s *Service) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ClinicianNotes = notes
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.audit(ctx, id, auditlog.ActionNotesUpdated, "Clinician notes updated")
	return p, nil
}

// Assess derives a record that is not stored.
func (s *Service) Assess(ctx context.Context, rec assessment.PatientRecord) assessment.Assessment {
	return s.assess(ctx, SourceStateless, rec)
}

// Alerts returns the critical alerts for a record that is not stored.
func (s *Service) Alerts(rec assessment.PatientRecord) []assessment.CriticalAlert {
	return assessment.GenerateCriticalAlerts(rec)
}
