package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type memRepo struct {
	patients map[uuid.UUID]*Patient
	units    []*HealthUnit
	err      error
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *memRepo) ListHealthUnits(_ context.Context, activeOnly bool) ([]*HealthUnit, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*HealthUnit
	for _, u := range m.units {
		if activeOnly && !u.Ativo {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memRepo) ListRegions(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	var out []string
	for _, u := range m.units {
		if u.Ativo && u.Regiao != nil && !seen[*u.Regiao] {
			seen[*u.Regiao] = true
			out = append(out, *u.Regiao)
		}
	}
	sort.Strings(out)
	return out, nil
}

func strPtr(s string) *string { return &s }

func newFixture() (*Handler, *memRepo, uuid.UUID) {
	id := uuid.New()
	unit := uuid.New()
	repo := &memRepo{
		patients: map[uuid.UUID]*Patient{
			id: {ID: id, NomeCompleto: "Maria da Silva", Idade: 72, Bairro: strPtr("Cajuru"),
				UnidadeSaudeID: &unit, DataCadastro: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Ativo: true},
		},
		units: []*HealthUnit{
			{ID: unit, Nome: "US Cajuru", Regiao: strPtr("Cajuru"), Ativo: true},
			{ID: uuid.New(), Nome: "US Boqueirão", Regiao: strPtr("Boqueirão"), Ativo: true},
			{ID: uuid.New(), Nome: "US Desativada", Regiao: strPtr("Matriz"), Ativo: false},
		},
	}
	return NewHandler(NewService(repo)), repo, id
}

func TestHandler_GetPatient(t *testing.T) {
	h, _, id := newFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.NomeCompleto != "Maria da Silva" || got.Idade != 72 {
		t.Errorf("unexpected patient %+v", got)
	}
}

func TestHandler_GetPatient_Errors(t *testing.T) {
	h, repo, _ := newFixture()
	e := echo.New()

	tests := []struct {
		name  string
		param string
		fail  error
		want  int
	}{
		{"invalid id", "abc", nil, http.StatusBadRequest},
		{"not found", uuid.New().String(), nil, http.StatusNotFound},
		{"store failure", uuid.New().String(), errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.err = tt.fail
			defer func() { repo.err = nil }()

			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tt.param)

			err := h.GetPatient(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if httpErr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, httpErr.Code)
			}
		})
	}
}

func TestHandler_ListHealthUnits(t *testing.T) {
	h, _, _ := newFixture()
	e := echo.New()

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?ativo=false", 3},
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health-units"+tc.query, nil), rec)
		if err := h.ListHealthUnits(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var units []HealthUnit
		if err := json.Unmarshal(rec.Body.Bytes(), &units); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(units) != tc.want {
			t.Errorf("query %q: expected %d units, got %d", tc.query, tc.want, len(units))
		}
	}
}

func TestHandler_ListHealthUnits_Empty(t *testing.T) {
	h := NewHandler(NewService(&memRepo{}))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health-units", nil), rec)

	if err := h.ListHealthUnits(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty array, got %q", body)
	}
}

func TestHandler_ListRegions(t *testing.T) {
	h, _, _ := newFixture()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health-units/regions", nil), rec)

	if err := h.ListRegions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Regions []string `json:"regions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Regions) != 2 || got.Regions[0] != "Boqueirão" || got.Regions[1] != "Cajuru" {
		t.Errorf("unexpected regions %v", got.Regions)
	}
}
