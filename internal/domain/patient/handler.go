package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/painelsaude/painel/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleProfessional))
	read.GET("/patients/:id", h.GetPatient)
	read.GET("/health-units", h.ListHealthUnits)
	read.GET("/health-units/regions", h.ListRegions)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListHealthUnits(c echo.Context) error {
	activeOnly := c.QueryParam("ativo") != "false"
	units, err := h.svc.ListHealthUnits(c.Request().Context(), activeOnly)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if units == nil {
		units = []*HealthUnit{}
	}
	return c.JSON(http.StatusOK, units)
}

func (h *Handler) ListRegions(c echo.Context) error {
	regions, err := h.svc.Regions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if regions == nil {
		regions = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"regions": regions})
}
