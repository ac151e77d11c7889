package auditlog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/periop/internal/platform/auth"
)

// -- Mocks --

type mockRepo struct {
	mu      sync.Mutex
	entries []*AuditLog
	clock   time.Time
	failErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{clock: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
}

func (m *mockRepo) Create(_ context.Context, e *AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.clock = m.clock.Add(time.Second)
	e.ID = uuid.New()
	e.Timestamp = m.clock
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*AuditLog
	for _, e := range m.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type mockChecker struct {
	owned map[uuid.UUID]bool
	err   error
}

func (m *mockChecker) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.owned[id], m.err
}

func withUser(ctx context.Context) context.Context {
	return auth.WithIdentity(ctx, "user-1", "doc@example.com", []string{auth.RoleClinician})
}

// -- Tests --

func TestService_Record_AttributesCaller(t *testing.T) {
	svc := NewService(newMockRepo())
	pid := uuid.New()

	e, err := svc.Record(withUser(context.Background()), pid, ActionPatientCreated, "Created patient Jane Roe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.UserID != "user-1" || e.UserEmail != "doc@example.com" {
		t.Errorf("entry not attributed: %+v", e)
	}
	if e.PatientID != pid || e.Timestamp.IsZero() {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestService_Record_RequiresAction(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Record(context.Background(), uuid.New(), "   ", "x"); !errors.Is(err, ErrActionRequired) {
		t.Fatalf("expected ErrActionRequired, got %v", err)
	}
}

func TestService_Record_WrapsRepoError(t *testing.T) {
	repo := newMockRepo()
	repo.failErr = errors.New("disk full")
	svc := NewService(repo)

	_, err := svc.Record(context.Background(), uuid.New(), "Viewed", "")
	if !errors.Is(err, repo.failErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestService_List_NewestFirst(t *testing.T) {
	svc := NewService(newMockRepo())
	pid := uuid.New()
	ctx := withUser(context.Background())
	for _, a := range []string{"first", "second", "third"} {
		if _, err := svc.Record(ctx, pid, a, ""); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = svc.Record(ctx, uuid.New(), "other patient", "")

	logs, total, err := svc.List(ctx, pid, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(logs) != 3 {
		t.Fatalf("expected 3 entries, got %d/%d", len(logs), total)
	}
	if logs[0].Action != "third" || logs[2].Action != "first" {
		t.Errorf("unexpected order: %s, %s, %s", logs[0].Action, logs[1].Action, logs[2].Action)
	}
}

func TestService_OwnershipCheck(t *testing.T) {
	svc := NewService(newMockRepo())
	owned := uuid.New()
	svc.SetPatientChecker(&mockChecker{owned: map[uuid.UUID]bool{owned: true}})
	ctx := withUser(context.Background())

	if _, err := svc.Create(ctx, owned, CreateRequest{Action: "Viewed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, uuid.New(), CreateRequest{Action: "Viewed"}); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
	if _, _, err := svc.List(ctx, uuid.New(), 10, 0); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound from List, got %v", err)
	}
}

func TestService_OwnershipCheckError(t *testing.T) {
	svc := NewService(newMockRepo())
	boom := errors.New("db down")
	svc.SetPatientChecker(&mockChecker{err: boom})

	if _, _, err := svc.List(context.Background(), uuid.New(), 10, 0); !errors.Is(err, boom) {
		t.Fatalf("expected checker error, got %v", err)
	}
}
