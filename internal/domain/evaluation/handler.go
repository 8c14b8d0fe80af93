package evaluation

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/auth"
	"github.com/painelsaude/painel/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Handler serves the evaluations of one instrument under its own prefix.
type Handler struct {
	svc        *Service
	instrument scoring.Instrument
}

func NewHandler(svc *Service, inst scoring.Instrument) *Handler {
	return &Handler{svc: svc, instrument: inst}
}

// RoutePrefix maps an instrument to its URL segment.
func RoutePrefix(inst scoring.Instrument) string {
	switch inst {
	case scoring.InstrumentIVCF:
		return "/ivcf"
	case scoring.InstrumentFACTF:
		return "/factf"
	default:
		return "/physical-activity"
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	base := RoutePrefix(h.instrument) + "/evaluations"

	g := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleProfessional))
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Get)
	g.POST(base, h.Create)
	g.PUT(base+"/:id", h.Update)
	g.DELETE(base+"/:id", h.Delete)
}

// metaBody holds the fields shared by every instrument's request body.
type metaBody struct {
	PatientID     string   `json:"patient_id"`
	DataAvaliacao string   `json:"data_avaliacao"`
	Comorbidades  *string  `json:"comorbidades"`
	Observacoes   *string  `json:"observacoes"`
	Profissional  *string  `json:"profissional_responsavel"`
	Pontuacao     *float64 `json:"pontuacao_total"`
	Classificacao *string  `json:"classificacao"`
}

func (h *Handler) bind(c echo.Context) (metaBody, ScorePatch, error) {
	switch h.instrument {
	case scoring.InstrumentIVCF:
		var b struct {
			metaBody
			IVCFPatch
		}
		err := c.Bind(&b)
		return b.metaBody, b.IVCFPatch, err
	case scoring.InstrumentFACTF:
		var b struct {
			metaBody
			FACTFPatch
		}
		err := c.Bind(&b)
		return b.metaBody, b.FACTFPatch, err
	default:
		var b struct {
			metaBody
			ActivityPatch
		}
		err := c.Bind(&b)
		return b.metaBody, b.ActivityPatch, err
	}
}

func (h *Handler) Create(c echo.Context) error {
	meta, scores, err := h.bind(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pid, err := uuid.Parse(meta.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	date, err := time.Parse(dateLayout, meta.DataAvaliacao)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data_avaliacao must be YYYY-MM-DD")
	}

	e, err := h.svc.Create(c.Request().Context(), CreateInput{
		PatientID:               pid,
		EvaluationDate:          date,
		Scores:                  scores,
		InformedTotal:           meta.Pontuacao,
		InformedClassification:  meta.Classificacao,
		Comorbidities:           meta.Comorbidades,
		Notes:                   meta.Observacoes,
		ResponsibleProfessional: meta.Profissional,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Get(c echo.Context) error {
	e, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{Instrument: h.instrument, Classification: c.QueryParam("classificacao")}

	if v := c.QueryParam("patient_id"); v != "" {
		pid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		params.PatientID = &pid
	}
	for name, dst := range map[string]**time.Time{"data_inicio": &params.From, "data_fim": &params.To} {
		if v := c.QueryParam(name); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
			}
			*dst = &t
		}
	}

	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Evaluation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}
	meta, scores, err := h.bind(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := Patch{
		InformedTotal:           meta.Pontuacao,
		InformedClassification:  meta.Classificacao,
		Comorbidities:           meta.Comorbidades,
		Notes:                   meta.Observacoes,
		ResponsibleProfessional: meta.Profissional,
	}
	if len(scores.Provided()) > 0 {
		p.Scores = scores
	}
	if meta.DataAvaliacao != "" {
		date, err := time.Parse(dateLayout, meta.DataAvaliacao)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "data_avaliacao must be YYYY-MM-DD")
		}
		p.EvaluationDate = &date
	}

	e, err := h.svc.Update(c.Request().Context(), existing.ID, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c echo.Context) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), existing.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// load fetches the :id evaluation, hiding evaluations of other instruments.
func (h *Handler) load(c echo.Context) (*Evaluation, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	if e.Instrument != h.instrument {
		return nil, httpError(ErrEvaluationNotFound)
	}
	return e, nil
}

// PatientHandler serves the cross-instrument patient views.
type PatientHandler struct {
	svc *Service
}

func NewPatientHandler(svc *Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func (h *PatientHandler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleManager, auth.RoleProfessional))
	read.GET("/patients/:id/evaluations", h.ListByPatient)
	read.GET("/patients/:id/evaluations/latest", h.Latest)
}

func (h *PatientHandler) params(c echo.Context) (uuid.UUID, scoring.Instrument, error) {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var inst scoring.Instrument
	if v := c.QueryParam("instrument"); v != "" {
		if inst, err = scoring.ParseInstrument(v); err != nil {
			return uuid.Nil, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return pid, inst, nil
}

func (h *PatientHandler) ListByPatient(c echo.Context) error {
	pid, inst, err := h.params(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), pid, inst, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Evaluation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *PatientHandler) Latest(c echo.Context) error {
	pid, inst, err := h.params(c)
	if err != nil {
		return err
	}
	if inst == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "instrument is required")
	}
	e, err := h.svc.Latest(c.Request().Context(), pid, inst)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, e)
}

// httpError maps lifecycle errors to status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEvaluationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "evaluation not found")
	case errors.Is(err, scoring.ErrDomainScoreOutOfRange),
		errors.Is(err, ErrMissingDomain),
		errors.Is(err, ErrFutureDate),
		errors.Is(err, ErrInconsistentTotal),
		errors.Is(err, ErrInconsistentClassification),
		errors.Is(err, ErrInstrumentMismatch):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
