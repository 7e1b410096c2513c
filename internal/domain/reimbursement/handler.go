package reimbursement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rim/rim/internal/domain/codes"
)

// Handler provides REST endpoints for reimbursement calculations.
type Handler struct {
	svc *Service
}

// NewHandler creates a new reimbursement handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers reimbursement routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reimbursement")
	g.POST("/scenario", h.CalculateScenario)
	g.GET("/compare/:code", h.CompareAllSites)
	g.GET("/sites", h.GetSites)
}

func httpError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{"errors": verr.Errors})
	case errors.Is(err, codes.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, codes.ErrNotReady):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "code index is still loading")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// CalculateScenario handles POST /api/v1/reimbursement/scenario
func (h *Handler) CalculateScenario(c echo.Context) error {
	var req ScenarioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Calculate(&req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CompareAllSites handles GET /api/v1/reimbursement/compare/:code
func (h *Handler) CompareAllSites(c echo.Context) error {
	deviceCost, _ := strconv.ParseFloat(c.QueryParam("deviceCost"), 64)
	ntapAddOn, _ := strconv.ParseFloat(c.QueryParam("ntapAddOn"), 64)

	result, err := h.svc.CompareAllSites(c.Param("code"), deviceCost, ntapAddOn)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetSites handles GET /api/v1/reimbursement/sites
func (h *Handler) GetSites(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sites":      ValidSites(),
		"thresholds": h.svc.GetThresholds(),
	})
}
