package middleware

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/painelsaude/painel/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func TestAudit_EvaluationRead(t *testing.T) {
	rec := &mockRecorder{}
	id := uuid.New().String()
	c, _ := newTestContext(http.MethodGet, "/api/v1/factf/evaluations/"+id, withUser("user-1", auth.RoleProfessional))
	c.Set("request_id", "req-abc")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.UserID != "user-1" || entry.RequestID != "req-abc" {
		t.Errorf("unexpected identity %q/%q", entry.UserID, entry.RequestID)
	}
	if entry.Resource != "factf" || entry.ResourceID != id {
		t.Errorf("expected factf/%s, got %s/%s", id, entry.Resource, entry.ResourceID)
	}
	if entry.Action != "read" || entry.StatusCode != http.StatusOK {
		t.Errorf("unexpected action %q status %d", entry.Action, entry.StatusCode)
	}
}

func TestAudit_PatientFromPathAndQuery(t *testing.T) {
	pid := uuid.New().String()

	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+pid+"/evaluations")
	_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
	if got := rec.last().PatientID; got != pid {
		t.Errorf("path: expected patient %s, got %q", pid, got)
	}

	c, _ = newTestContext(http.MethodGet, "/api/v1/ivcf/evaluations?patient_id="+pid)
	_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
	if got := rec.last().PatientID; got != pid {
		t.Errorf("query: expected patient %s, got %q", pid, got)
	}

	c, _ = newTestContext(http.MethodGet, "/api/v1/ivcf/evaluations?patient_id=nope")
	_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
	if got := rec.last().PatientID; got != "" {
		t.Errorf("expected invalid patient_id to be dropped, got %q", got)
	}
}

func TestAudit_CapturesErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodDelete, "/api/v1/ivcf/evaluations/"+uuid.New().String())

	err := Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "evaluation not found")
	})(c)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	entry := rec.last()
	if entry.Action != "delete" || entry.StatusCode != http.StatusNotFound {
		t.Errorf("expected delete/404, got %s/%d", entry.Action, entry.StatusCode)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	rec := &mockRecorder{}
	for _, path := range []string{"/health", "/metrics"} {
		c, _ := newTestContext(http.MethodGet, path)
		_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
	}
	if rec.count() != 0 {
		t.Errorf("expected no audit entries, got %d", rec.count())
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	c, _ := newTestContext(http.MethodPost, "/api/v1/ivcf/evaluations")

	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("recorder failure leaked into request: %v", err)
	}
	if rec.last().Action != "create" {
		t.Errorf("expected create, got %s", rec.last().Action)
	}
}

func TestAudit_RecorderFunc(t *testing.T) {
	var got AuditEntry
	fn := AuditRecorderFunc(func(e AuditEntry) error {
		got = e
		return nil
	})
	c, _ := newTestContext(http.MethodPut, "/api/v1/physical-activity/evaluations/"+uuid.New().String())

	_ = Audit(zerolog.Nop(), fn)(okHandler)(c)

	if got.Resource != "physical-activity" || got.Action != "update" {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestResourceFromPath(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		path, resource, id string
	}{
		{"/api/v1/ivcf/evaluations", "ivcf", ""},
		{"/api/v1/ivcf/evaluations/" + id, "ivcf", id},
		{"/api/v1/patients/" + id + "/evaluations/latest", "patients", id},
		{"/api/v1/ivcf/dashboard/summary", "ivcf", ""},
		{"/api/v1/", "unknown", ""},
	}
	for _, tt := range tests {
		r, gotID := resourceFromPath(tt.path)
		if r != tt.resource || gotID != tt.id {
			t.Errorf("resourceFromPath(%q) = %q, %q; want %q, %q", tt.path, r, gotID, tt.resource, tt.id)
		}
	}
}
