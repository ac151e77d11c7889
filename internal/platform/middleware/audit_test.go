package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/periop/internal/platform/auth"
)

// mockRecorder collects access entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AccessEntry
	err     error
}

func (m *mockRecorder) RecordAccess(_ context.Context, entry AccessEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AccessEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withAuth(userID string, roles []string) func(*http.Request) {
	return func(req *http.Request) {
		*req = *req.WithContext(auth.WithIdentity(req.Context(), userID, "", roles))
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// --- Tests ---

func TestAudit_PatientRead(t *testing.T) {
	rec := &mockRecorder{}
	patientID := uuid.New().String()
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+patientID, withAuth("user-1", []string{"clinician"}))
	c.Set("request_id", "req-123")

	if err := Audit(zerolog.New(os.Stderr), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.UserID != "user-1" || entry.PatientID != patientID {
		t.Errorf("unexpected identity in entry %+v", entry)
	}
	if entry.ResourceType != "patients" || entry.Action != "read" {
		t.Errorf("expected patients/read, got %s/%s", entry.ResourceType, entry.Action)
	}
	if entry.RequestID != "req-123" || entry.StatusCode != http.StatusOK {
		t.Errorf("unexpected request metadata %+v", entry)
	}
	if len(entry.UserRoles) != 1 || entry.UserRoles[0] != "clinician" {
		t.Errorf("unexpected roles %v", entry.UserRoles)
	}
}

func TestAudit_AssessmentCreate(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodPost, "/api/v1/assessments")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := rec.last()
	if entry.ResourceType != "assessments" || entry.Action != "create" || entry.PatientID != "" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestAudit_SkipsNonAuditablePaths(t *testing.T) {
	rec := &mockRecorder{}
	for _, path := range []string{"/health", "/metrics", "/api/v1/auth/login"} {
		c, _ := newTestContext(http.MethodPost, path)
		if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if rec.count() != 0 {
		t.Errorf("expected no entries, got %d", rec.count())
	}
}

func TestAudit_CapturesErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodDelete, "/api/v1/patients/"+uuid.New().String())

	handler := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err := Audit(zerolog.Nop(), rec)(handler)(c); err == nil {
		t.Fatal("expected handler error to propagate")
	}
	entry := rec.last()
	if entry.StatusCode != http.StatusNotFound || entry.Action != "delete" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestAudit_RecorderError_DoesNotBreakRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("db down")}
	c, httpRec := newTestContext(http.MethodGet, "/api/v1/patients")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("recorder failure should not fail the request: %v", err)
	}
	if httpRec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", httpRec.Code)
	}
}

func TestAudit_LogsEvent(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients", withAuth("user-9", nil))

	if err := Audit(zerolog.New(&buf))(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["message"] != "phi_access" || line["type"] != "hipaa_audit" || line["user_id"] != "user-9" {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestIsAuditablePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/patients", true},
		{"/api/v1/patients/abc/audit-logs", true},
		{"/api/v1/assessments/alerts", true},
		{"/api/v1/auth/login", false},
		{"/api/v2/patients", false},
		{"/health", false},
	}
	for _, tt := range tests {
		if got := isAuditablePath(tt.path); got != tt.want {
			t.Errorf("isAuditablePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHttpMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:     "read",
		http.MethodHead:    "read",
		http.MethodPost:    "create",
		http.MethodPut:     "update",
		http.MethodPatch:   "update",
		http.MethodDelete:  "delete",
		http.MethodOptions: "read",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestExtractResourceType(t *testing.T) {
	tests := map[string]string{
		"/api/v1/patients":           "patients",
		"/api/v1/patients/123":       "patients",
		"/api/v1/assessments/alerts": "assessments",
		"/api/v1/":                   "unknown",
	}
	for path, want := range tests {
		if got := extractResourceType(path); got != want {
			t.Errorf("extractResourceType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestExtractPatientID(t *testing.T) {
	id := uuid.New().String()
	tests := map[string]string{
		"/api/v1/patients/" + id:                 id,
		"/api/v1/patients/" + id + "/audit-logs": id,
		"/api/v1/patients/not-a-uuid":            "",
		"/api/v1/patients":                       "",
		"/api/v1/assessments":                    "",
	}
	for path, want := range tests {
		if got := extractPatientID(path); got != want {
			t.Errorf("extractPatientID(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestAccessRecorderFunc(t *testing.T) {
	var got AccessEntry
	f := AccessRecorderFunc(func(_ context.Context, e AccessEntry) error {
		got = e
		return nil
	})
	if err := f.RecordAccess(context.Background(), AccessEntry{UserID: "u"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u" {
		t.Errorf("expected entry to be passed through, got %+v", got)
	}
}
