package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/auth"
	"github.com/painelsaude/painel/internal/platform/export"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleManager))

	ivcf := g.Group("/ivcf/dashboard")
	ivcf.GET("/summary", h.summary(scoring.InstrumentIVCF))
	ivcf.GET("/domain-distribution", h.domainDistribution(scoring.InstrumentIVCF))
	ivcf.GET("/region-averages", h.RegionAverages)
	ivcf.GET("/monthly-evolution", h.monthlyEvolution(scoring.InstrumentIVCF))
	ivcf.GET("/critical-patients", h.criticalPatients(scoring.InstrumentIVCF))
	ivcf.GET("/critical-patients.xlsx", h.CriticalPatientsXLSX)
	ivcf.GET("/fragile-percentage", h.FragilePercentage)
	ivcf.GET("/regions", h.Regions)
	ivcf.GET("/all-patients", h.allPatients(scoring.InstrumentIVCF))

	factf := g.Group("/factf/dashboard")
	factf.GET("/summary", h.FatigueSummary)
	factf.GET("/domain-distribution", h.domainDistribution(scoring.InstrumentFACTF))
	factf.GET("/monthly-evolution", h.MonthlyFatigue)
	factf.GET("/critical-patients", h.criticalPatients(scoring.InstrumentFACTF))
	factf.GET("/fatigue-distribution", h.FatigueDistribution)
	factf.GET("/patient-domain-distribution/:patient_id", h.PatientDomainDistribution)
	factf.GET("/all-patients", h.allPatients(scoring.InstrumentFACTF))

	pa := g.Group("/physical-activity/dashboard")
	pa.GET("/summary", h.ActivitySummary)
	pa.GET("/activity-distribution", h.ActivityDistribution)
	pa.GET("/who-compliance", h.WHOCompliance)
	pa.GET("/sedentary-by-age", h.SedentaryByAge)
	pa.GET("/critical-patients", h.criticalPatients(scoring.InstrumentActivity))
	pa.GET("/monthly-evolution", h.monthlyEvolution(scoring.InstrumentActivity))
	pa.GET("/sedentary-trend", h.SedentaryTrend)
	pa.GET("/all-patients", h.allPatients(scoring.InstrumentActivity))
}

func (h *Handler) filter(c echo.Context, inst scoring.Instrument) (Filter, error) {
	f, err := ParseFilter(c.QueryParams(), inst, h.svc.Regions())
	if err != nil {
		return Filter{}, httpError(err)
	}
	return f, nil
}

func (h *Handler) summary(inst scoring.Instrument) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := h.filter(c, inst)
		if err != nil {
			return err
		}
		r, err := h.svc.Summary(c.Request().Context(), inst, f)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) domainDistribution(inst scoring.Instrument) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := h.filter(c, inst)
		if err != nil {
			return err
		}
		r, err := h.svc.DomainDistribution(c.Request().Context(), inst, f)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) RegionAverages(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentIVCF)
	if err != nil {
		return err
	}
	r, err := h.svc.RegionAverages(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func monthWindow(c echo.Context) (MonthWindow, error) {
	var w MonthWindow
	if v := c.QueryParam("months_back"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return w, httpError(&FilterError{Field: "months_back", Value: v, Reason: "expected integer"})
		}
		if n < 1 || n > 24 {
			return w, httpError(&FilterError{Field: "months_back", Value: v, Reason: "must be between 1 and 24"})
		}
		w.MonthsBack = n
	}
	if v := c.QueryParam("from_last_evaluation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return w, httpError(&FilterError{Field: "from_last_evaluation", Value: v, Reason: "expected boolean"})
		}
		w.FromLatest = b
	}
	return w, nil
}

func (h *Handler) monthlyEvolution(inst scoring.Instrument) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := h.filter(c, inst)
		if err != nil {
			return err
		}
		w, err := monthWindow(c)
		if err != nil {
			return err
		}
		r, err := h.svc.MonthlyEvolution(c.Request().Context(), inst, f, w)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) MonthlyFatigue(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentFACTF)
	if err != nil {
		return err
	}
	w, err := monthWindow(c)
	if err != nil {
		return err
	}
	r, err := h.svc.MonthlyFatigue(c.Request().Context(), f, w)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

// thresholdParams names the critical threshold parameter per instrument.
var thresholdParams = map[scoring.Instrument]string{
	scoring.InstrumentIVCF:  "pontuacao_minima",
	scoring.InstrumentFACTF: "min_score",
}

func threshold(c echo.Context, inst scoring.Instrument) (*float64, error) {
	name, ok := thresholdParams[inst]
	if !ok {
		return nil, nil
	}
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, httpError(&FilterError{Field: name, Value: v, Reason: "expected number"})
	}
	return &t, nil
}

func (h *Handler) critical(c echo.Context, inst scoring.Instrument) (*Report[[]CriticalPatient], error) {
	f, err := h.filter(c, inst)
	if err != nil {
		return nil, err
	}
	t, err := threshold(c, inst)
	if err != nil {
		return nil, err
	}
	r, err := h.svc.CriticalPatients(c.Request().Context(), inst, f, t)
	if err != nil {
		return nil, httpError(err)
	}
	return r, nil
}

func (h *Handler) criticalPatients(inst scoring.Instrument) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := h.critical(c, inst)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) CriticalPatientsXLSX(c echo.Context) error {
	r, err := h.critical(c, scoring.InstrumentIVCF)
	if err != nil {
		return err
	}
	rows := make([]export.CriticalRow, len(r.Data))
	for i, p := range r.Data {
		rows[i] = export.CriticalRow{
			Name:           p.Name,
			Age:            p.Age,
			Neighborhood:   p.Neighborhood,
			HealthUnit:     p.HealthUnit,
			Score:          p.Score,
			Classification: p.Classification,
			Comorbidities:  p.Comorbidities,
			EvaluationDate: p.EvaluationDate,
		}
	}
	data, err := export.CriticalPatientsXLSX(export.Sheet{Name: "IVCF-20", ScoreHeader: "Pontuação IVCF"}, rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "pacientes-criticos-ivcf.xlsx"))
	return c.Blob(http.StatusOK, export.MIMEXLSX, data)
}

func (h *Handler) FragilePercentage(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentIVCF)
	if err != nil {
		return err
	}
	r, err := h.svc.FragilePercentage(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Regions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"regions": h.svc.Regions()})
}

func (h *Handler) FatigueSummary(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentFACTF)
	if err != nil {
		return err
	}
	r, err := h.svc.FatigueSummary(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) FatigueDistribution(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentFACTF)
	if err != nil {
		return err
	}
	r, err := h.svc.FatigueDistribution(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ActivitySummary(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentActivity)
	if err != nil {
		return err
	}
	r, err := h.svc.ActivitySummary(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ActivityDistribution(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentActivity)
	if err != nil {
		return err
	}
	r, err := h.svc.ActivityDistribution(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) WHOCompliance(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentActivity)
	if err != nil {
		return err
	}
	r, err := h.svc.WHOCompliance(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) SedentaryByAge(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentActivity)
	if err != nil {
		return err
	}
	r, err := h.svc.SedentaryByAge(c.Request().Context(), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) allPatients(inst scoring.Instrument) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := h.filter(c, inst)
		if err != nil {
			return err
		}
		r, err := h.svc.AllPatients(c.Request().Context(), inst, f)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) PatientDomainDistribution(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	f, err := h.filter(c, scoring.InstrumentFACTF)
	if err != nil {
		return err
	}
	r, err := h.svc.PatientDomainDistribution(c.Request().Context(), pid, f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) SedentaryTrend(c echo.Context) error {
	f, err := h.filter(c, scoring.InstrumentActivity)
	if err != nil {
		return err
	}
	w, err := monthWindow(c)
	if err != nil {
		return err
	}
	r, err := h.svc.SedentaryTrend(c.Request().Context(), f, w)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidFilter):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotEvaluated):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
