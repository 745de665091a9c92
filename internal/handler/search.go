package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abndnt/paris-night-sub001/internal/adapters"
	"github.com/abndnt/paris-night-sub001/internal/models"
	"github.com/abndnt/paris-night-sub001/internal/orchestrator"
)

// Service is the orchestration surface the transport layer consumes.
type Service interface {
	SearchFlights(ctx context.Context, req models.SearchRequest, sourceNames []string, opts orchestrator.Options) (*models.SearchResponse, error)
	FilterSearchResults(searchID string, filters *models.ResultFilters) ([]models.FlightResult, error)
	SortSearchResults(searchID, sortBy, sortOrder string) ([]models.FlightResult, error)
	GetSearchProgress(searchID string) (models.SearchProgress, bool)
	CancelSearch(searchID string) bool
	HealthCheck(ctx context.Context) models.HealthResponse
	Stats() map[string]models.AdapterStats
}

type SearchHandler struct {
	service Service
}

func NewSearchHandler(service Service) *SearchHandler {
	return &SearchHandler{service: service}
}

type searchPayload struct {
	models.SearchCriteria
	UserID    string   `json:"user_id,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	SortBy    string   `json:"sort_by,omitempty"`
	SortOrder string   `json:"sort_order,omitempty"`
}

func (h *SearchHandler) Search(c echo.Context) error {
	var payload searchPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	req := models.NewSearchRequest(payload.SearchCriteria, payload.UserID)
	opts := orchestrator.Options{SortBy: payload.SortBy, SortOrder: payload.SortOrder}

	resp, err := h.service.SearchFlights(c.Request().Context(), req, payload.Sources, opts)
	if err != nil {
		return searchError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func searchError(c echo.Context, err error) error {
	var validationErr models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, adapters.ErrUnknownSource):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unknown_source",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, orchestrator.ErrSearchCancelled):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "search_cancelled",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "search_error",
		Message: "Failed to search flights: " + err.Error(),
		Code:    http.StatusInternalServerError,
	})
}

func (h *SearchHandler) Progress(c echo.Context) error {
	progress, ok := h.service.GetSearchProgress(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "search not found",
			Code:    http.StatusNotFound,
		})
	}

	return c.JSON(http.StatusOK, progress)
}

func (h *SearchHandler) Cancel(c echo.Context) error {
	cancelled := h.service.CancelSearch(c.Param("id"))
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func (h *SearchHandler) Filter(c echo.Context) error {
	var filters models.ResultFilters
	if err := c.Bind(&filters); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse filters: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	results, err := h.service.FilterSearchResults(c.Param("id"), &filters)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSearchNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
				Code:    http.StatusNotFound,
			})
		}
		return searchError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results":       results,
		"total_results": len(results),
	})
}

func (h *SearchHandler) Sort(c echo.Context) error {
	results, err := h.service.SortSearchResults(c.Param("id"), c.QueryParam("sort_by"), c.QueryParam("sort_order"))
	if err != nil {
		if errors.Is(err, orchestrator.ErrSearchNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
				Code:    http.StatusNotFound,
			})
		}
		return searchError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"results":       results,
		"total_results": len(results),
	})
}

func (h *SearchHandler) Health(c echo.Context) error {
	health := h.service.HealthCheck(c.Request().Context())

	code := http.StatusOK
	if health.Status == models.HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}

func (h *SearchHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Stats())
}
