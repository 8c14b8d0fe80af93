package evaluation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

type memRepo struct {
	store  map[uuid.UUID]*Evaluation
	writes int
}

func newMemRepo() *memRepo {
	return &memRepo{store: make(map[uuid.UUID]*Evaluation)}
}

func clone(e *Evaluation) *Evaluation {
	c := *e
	c.DomainScores = e.DomainScores.Clone()
	return &c
}

func (m *memRepo) Create(_ context.Context, e *Evaluation) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.store[e.ID] = clone(e)
	m.writes++
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Evaluation, error) {
	e, ok := m.store[id]
	if !ok {
		return nil, ErrEvaluationNotFound
	}
	return clone(e), nil
}

func (m *memRepo) Update(_ context.Context, e *Evaluation) error {
	if _, ok := m.store[e.ID]; !ok {
		return ErrEvaluationNotFound
	}
	e.UpdatedAt = time.Now()
	m.store[e.ID] = clone(e)
	m.writes++
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.store[id]; !ok {
		return false, nil
	}
	delete(m.store, id)
	m.writes++
	return true, nil
}

func (m *memRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument, limit, offset int) ([]*Evaluation, int, error) {
	return m.Search(ctx, SearchParams{PatientID: &patientID, Instrument: inst}, limit, offset)
}

func (m *memRepo) Latest(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument) (*Evaluation, error) {
	items, _, _ := m.ListByPatient(ctx, patientID, inst, 1, 0)
	if len(items) == 0 {
		return nil, ErrEvaluationNotFound
	}
	return items[0], nil
}

func (m *memRepo) Search(_ context.Context, p SearchParams, limit, offset int) ([]*Evaluation, int, error) {
	var out []*Evaluation
	for _, e := range m.store {
		if p.Instrument != "" && e.Instrument != p.Instrument {
			continue
		}
		if p.PatientID != nil && e.PatientID != *p.PatientID {
			continue
		}
		if p.From != nil && e.EvaluationDate.Before(*p.From) {
			continue
		}
		if p.To != nil && e.EvaluationDate.After(*p.To) {
			continue
		}
		if p.Classification != "" && e.ClassificationLabel() != p.Classification {
			continue
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EvaluationDate.After(out[j].EvaluationDate) })
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
