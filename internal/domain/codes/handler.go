package codes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rim/rim/pkg/pagination"
)

// Handler provides REST endpoints for code lookup and search.
type Handler struct {
	svc *Service
}

// NewHandler creates a new codes handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers code routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/codes")
	g.GET("", h.GetCodes)
	g.GET("/search", h.SearchCodes)
	g.GET("/stats", h.GetStats)
	g.GET("/:code", h.GetCode)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotReady):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "code index is still loading")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// GetCodes handles GET /api/v1/codes
func (h *Handler) GetCodes(c echo.Context) error {
	page := pagination.FromContext(c)

	sortOrder := c.QueryParam("sortOrder")
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	result, err := h.svc.GetAllCodes(ListOptions{
		Limit:     page.Limit,
		Offset:    page.Offset,
		Type:      c.QueryParam("type"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: sortOrder,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(result.Codes, result.Total, result.Limit, result.Offset))
}

// SearchCodes handles GET /api/v1/codes/search?q=...
func (h *Handler) SearchCodes(c echo.Context) error {
	page := pagination.FromContext(c)

	result, err := h.svc.Search(c.QueryParam("q"), page.Limit, c.QueryParam("type"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetStats handles GET /api/v1/codes/stats
func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.GetStats())
}

// GetCode handles GET /api/v1/codes/:code
func (h *Handler) GetCode(c echo.Context) error {
	detail, err := h.svc.GetCode(c.Param("code"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}
