package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const evalCols = `id, patient_id, instrument, evaluation_date, domain_scores,
	total_score, fatigue_subscale, classification,
	weekly_light_minutes, weekly_moderate_minutes, weekly_vigorous_minutes,
	who_compliance, sedentary_risk_level,
	comorbidities, notes, responsible_professional, created_at, updated_at`

func scanEvaluation(row pgx.Row) (*Evaluation, error) {
	var e Evaluation
	err := row.Scan(&e.ID, &e.PatientID, &e.Instrument, &e.EvaluationDate, &e.DomainScores,
		&e.TotalScore, &e.FatigueSubscale, &e.Classification,
		&e.WeeklyLightMinutes, &e.WeeklyModerateMinutes, &e.WeeklyVigorousMinutes,
		&e.WHOCompliance, &e.SedentaryRiskLevel,
		&e.Comorbidities, &e.Notes, &e.ResponsibleProfessional, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Evaluation) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO evaluation (id, patient_id, instrument, evaluation_date, domain_scores,
			total_score, fatigue_subscale, classification,
			weekly_light_minutes, weekly_moderate_minutes, weekly_vigorous_minutes,
			who_compliance, sedentary_risk_level,
			comorbidities, notes, responsible_professional)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.Instrument, e.EvaluationDate, e.DomainScores,
		e.TotalScore, e.FatigueSubscale, e.Classification,
		e.WeeklyLightMinutes, e.WeeklyModerateMinutes, e.WeeklyVigorousMinutes,
		e.WHOCompliance, e.SedentaryRiskLevel,
		e.Comorbidities, e.Notes, e.ResponsibleProfessional,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	e, err := scanEvaluation(r.conn(ctx).QueryRow(ctx, `SELECT `+evalCols+` FROM evaluation WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEvaluationNotFound
	}
	return e, err
}

func (r *repoPG) Update(ctx context.Context, e *Evaluation) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE evaluation SET evaluation_date=$2, domain_scores=$3,
			total_score=$4, fatigue_subscale=$5, classification=$6,
			weekly_light_minutes=$7, weekly_moderate_minutes=$8, weekly_vigorous_minutes=$9,
			who_compliance=$10, sedentary_risk_level=$11,
			comorbidities=$12, notes=$13, responsible_professional=$14, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.EvaluationDate, e.DomainScores,
		e.TotalScore, e.FatigueSubscale, e.Classification,
		e.WeeklyLightMinutes, e.WeeklyModerateMinutes, e.WeeklyVigorousMinutes,
		e.WHOCompliance, e.SedentaryRiskLevel,
		e.Comorbidities, e.Notes, e.ResponsibleProfessional,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEvaluationNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM evaluation WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument, limit, offset int) ([]*Evaluation, int, error) {
	return r.Search(ctx, SearchParams{PatientID: &patientID, Instrument: inst}, limit, offset)
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID, inst scoring.Instrument) (*Evaluation, error) {
	e, err := scanEvaluation(r.conn(ctx).QueryRow(ctx, `SELECT `+evalCols+` FROM evaluation
		WHERE patient_id = $1 AND instrument = $2
		ORDER BY evaluation_date DESC, created_at DESC LIMIT 1`, patientID, inst))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEvaluationNotFound
	}
	return e, err
}

// searchClause renders params as an AND-ed WHERE suffix with positional args.
func searchClause(params SearchParams) (string, []interface{}) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if params.Instrument != "" {
		where += fmt.Sprintf(` AND instrument = $%d`, idx)
		args = append(args, params.Instrument)
		idx++
	}
	if params.PatientID != nil {
		where += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, *params.PatientID)
		idx++
	}
	if params.From != nil {
		where += fmt.Sprintf(` AND evaluation_date >= $%d`, idx)
		args = append(args, *params.From)
		idx++
	}
	if params.To != nil {
		where += fmt.Sprintf(` AND evaluation_date <= $%d`, idx)
		args = append(args, *params.To)
		idx++
	}
	if params.Classification != "" {
		where += fmt.Sprintf(` AND (classification = $%d OR sedentary_risk_level = $%d)`, idx, idx)
		args = append(args, params.Classification)
	}
	return where, args
}

func (r *repoPG) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Evaluation, int, error) {
	where, args := searchClause(params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM evaluation`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + evalCols + ` FROM evaluation` + where +
		fmt.Sprintf(` ORDER BY evaluation_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
