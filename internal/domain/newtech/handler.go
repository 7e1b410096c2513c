package newtech

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides REST endpoints for the NTAP and TPT programs.
type Handler struct {
	svc *Service
}

// NewHandler creates a new technology programs handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers NTAP and TPT routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	ntap := api.Group("/ntap")
	ntap.POST("/calculate", h.CalculateNtap)
	ntap.POST("/eligibility", h.CheckNtapEligibility)
	ntap.POST("/application", h.GenerateNtapApplication)
	ntap.GET("/approved-list", h.ApprovedNtapList)
	ntap.GET("/drgs", h.AvailableDRGs)

	tpt := api.Group("/tpt")
	tpt.POST("/calculate", h.CalculateTpt)
	tpt.POST("/eligibility", h.CheckTptEligibility)
	tpt.POST("/application", h.GenerateTptApplication)
	tpt.GET("/approved-list", h.ApprovedTptList)
	tpt.GET("/apcs", h.AvailableAPCs)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotReady):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "program data is still loading")
	case errors.Is(err, ErrDeviceCost):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// CalculateNtap handles POST /api/v1/ntap/calculate
func (h *Handler) CalculateNtap(c echo.Context) error {
	var req NtapCalculateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.CalculateNtapPayment(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CheckNtapEligibility handles POST /api/v1/ntap/eligibility
func (h *Handler) CheckNtapEligibility(c echo.Context) error {
	var req NtapEligibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceName == "" || req.DeviceCost <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "device name and cost are required")
	}

	result, err := h.svc.CheckNtapEligibility(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GenerateNtapApplication handles POST /api/v1/ntap/application
func (h *Handler) GenerateNtapApplication(c echo.Context) error {
	var req NtapApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceName == "" || req.Manufacturer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "device name and manufacturer are required")
	}

	doc, err := h.svc.GenerateNtapApplication(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ApprovedNtapList handles GET /api/v1/ntap/approved-list
func (h *Handler) ApprovedNtapList(c echo.Context) error {
	list, err := h.svc.ApprovedNtapTechnologies()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// AvailableDRGs handles GET /api/v1/ntap/drgs
func (h *Handler) AvailableDRGs(c echo.Context) error {
	drgs, err := h.svc.AvailableDRGs()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"drgs": drgs})
}

// CalculateTpt handles POST /api/v1/tpt/calculate
func (h *Handler) CalculateTpt(c echo.Context) error {
	var req TptCalculateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.CalculateTptPayment(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// CheckTptEligibility handles POST /api/v1/tpt/eligibility
func (h *Handler) CheckTptEligibility(c echo.Context) error {
	var req TptEligibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceName == "" || req.DeviceCost <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "device name and cost are required")
	}

	result, err := h.svc.CheckTptEligibility(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GenerateTptApplication handles POST /api/v1/tpt/application
func (h *Handler) GenerateTptApplication(c echo.Context) error {
	var req TptApplicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceName == "" || req.Manufacturer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "device name and manufacturer are required")
	}

	doc, err := h.svc.GenerateTptApplication(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ApprovedTptList handles GET /api/v1/tpt/approved-list
func (h *Handler) ApprovedTptList(c echo.Context) error {
	list, err := h.svc.ApprovedTptTechnologies()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// AvailableAPCs handles GET /api/v1/tpt/apcs
func (h *Handler) AvailableAPCs(c echo.Context) error {
	apcs, err := h.svc.AvailableAPCs()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"apcs": apcs})
}
