package scoring

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/painelsaude/painel/internal/platform/auth"
)

// Handler exposes the calculators without persisting anything.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/score", auth.RequireRole(auth.RoleManager, auth.RoleProfessional))
	g.POST("/ivcf", h.IVCF)
	g.POST("/factf", h.FACTF)
	g.POST("/physical-activity", h.PhysicalActivity)
}

// IVCF, FACTF and PhysicalActivity bind only the answered fields, so a
// required domain left out of the body is rejected with 422.
func (h *Handler) IVCF(c echo.Context) error {
	var in IVCFSubmission
	res, err := h.score(c, &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.IVCF())
}

func (h *Handler) FACTF(c echo.Context) error {
	var in FACTFSubmission
	res, err := h.score(c, &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.FACTF())
}

func (h *Handler) PhysicalActivity(c echo.Context) error {
	var in ActivitySubmission
	res, err := h.score(c, &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Activity)
}

func (h *Handler) score(c echo.Context, in Submission) (Result, error) {
	if err := c.Bind(in); err != nil {
		return Result{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := Score(in)
	if err != nil {
		return Result{}, httpError(err)
	}
	return res, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrDomainScoreOutOfRange) || errors.Is(err, ErrMissingDomain) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
