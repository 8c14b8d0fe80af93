package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

const rowQuery = `SELECT e.id, e.patient_id, p.nome_completo, p.idade, COALESCE(p.bairro, ''),
	p.unidade_saude_id, COALESCE(hu.nome, ''), COALESCE(hu.regiao, ''), COALESCE(hu.bairro, ''),
	e.evaluation_date, e.domain_scores,
	COALESCE(e.total_score, 0), COALESCE(e.fatigue_subscale, 0),
	COALESCE(e.classification, e.sedentary_risk_level, ''),
	COALESCE(e.weekly_light_minutes, 0), COALESCE(e.weekly_moderate_minutes, 0),
	COALESCE(e.weekly_vigorous_minutes, 0), COALESCE(e.who_compliance, false),
	COALESCE(e.comorbidities, '')
FROM evaluation e
JOIN patient p ON p.id = e.patient_id
LEFT JOIN health_unit hu ON hu.id = p.unidade_saude_id`

func (s *storePG) Rows(ctx context.Context, inst scoring.Instrument, f Filter) ([]Row, error) {
	where, args := buildFilterClause(inst, f)
	rows, err := s.conn(ctx).Query(ctx, rowQuery+where+` ORDER BY e.evaluation_date, e.created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query dashboard rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.EvaluationID, &r.PatientID, &r.PatientName, &r.Age, &r.Neighborhood,
			&r.HealthUnitID, &r.HealthUnit, &r.Region, &r.UnitBairro,
			&r.EvaluationDate, &r.Scores,
			&r.Total, &r.Fatigue, &r.Classification,
			&r.WeeklyLight, &r.WeeklyModerate, &r.WeeklyVigorous, &r.WHOCompliant,
			&r.Comorbidities); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const patientQuery = `SELECT p.id, p.nome_completo, p.idade, COALESCE(p.bairro, ''),
	p.unidade_saude_id, COALESCE(hu.nome, ''), COALESCE(hu.regiao, ''), p.data_cadastro
FROM patient p
LEFT JOIN health_unit hu ON hu.id = p.unidade_saude_id`

func (s *storePG) Patients(ctx context.Context, f Filter) ([]PatientRef, error) {
	where, args := buildPatientClause(f)
	rows, err := s.conn(ctx).Query(ctx, patientQuery+where+` ORDER BY p.nome_completo, p.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query dashboard patients: %w", err)
	}
	defer rows.Close()

	var out []PatientRef
	for rows.Next() {
		var p PatientRef
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Neighborhood,
			&p.HealthUnitID, &p.HealthUnit, &p.Region, &p.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type clause struct {
	where string
	args  []interface{}
}

func (c *clause) add(cond string, v interface{}) {
	c.args = append(c.args, v)
	c.where += fmt.Sprintf(" AND "+cond, len(c.args))
}

// scope adds the patient predicates of f.
func (c *clause) scope(f Filter) {
	if f.Region != "" {
		c.add("hu.regiao = $%d", f.Region)
	}
	if f.HealthUnitID != nil {
		c.add("p.unidade_saude_id = $%d", *f.HealthUnitID)
	}
	if f.AgeRange != "" {
		lo, hi := f.AgeRange.Bounds()
		c.add("p.idade >= $%d", lo)
		if hi > 0 {
			c.add("p.idade <= $%d", hi)
		}
	}
}

// buildFilterClause renders f as a WHERE clause over the rowQuery aliases.
// Inactive patients are always excluded.
func buildFilterClause(inst scoring.Instrument, f Filter) (string, []interface{}) {
	c := clause{where: " WHERE e.instrument = $1 AND p.ativo = true", args: []interface{}{string(inst)}}
	if f.From != nil {
		c.add("e.evaluation_date >= $%d", *f.From)
	}
	if f.To != nil {
		c.add("e.evaluation_date <= $%d", *f.To)
	}
	c.scope(f)
	if f.Classification != "" {
		c.add("COALESCE(e.classification, e.sedentary_risk_level) = $%d", f.Classification)
	}
	return c.where, c.args
}

// buildPatientClause renders the patient predicates of f over the
// patientQuery aliases.
func buildPatientClause(f Filter) (string, []interface{}) {
	c := clause{where: " WHERE p.ativo = true"}
	c.scope(f)
	return c.where, c.args
}
