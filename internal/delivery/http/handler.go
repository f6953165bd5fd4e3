package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/usecase"
	"github.com/tumbuh/backend/internal/validation"
)

// Version is reported by the health endpoint; set at build time with -ldflags
var Version = "dev"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	advisory *usecase.AdvisoryService
	feedback *usecase.FeedbackService
}

// NewHandler creates a new HTTP handler
func NewHandler(advisory *usecase.AdvisoryService, feedback *usecase.FeedbackService) *Handler {
	return &Handler{
		advisory: advisory,
		feedback: feedback,
	}
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string                       `json:"error"`
	Details []validation.FieldError      `json:"details,omitempty"`
	Result  *domain.RecommendationResult `json:"result,omitempty"`
}

type recommendRequest struct {
	Commodity string   `json:"commodity" validate:"required"`
	Province  string   `json:"province" validate:"required"`
	SoilPH    *float64 `json:"soilPh" validate:"required"`
	TempC     *float64 `json:"tempC" validate:"required"`
}

type feedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	ready := h.advisory != nil && h.advisory.Ready()
	status := "healthy"
	if !ready {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "tumbuh-backend",
		"version": Version,
		"ready":   ready,
	})
}

// ListProvinces returns the provinces of the lookup table
func (h *Handler) ListProvinces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"provinces": h.advisory.Provinces()})
}

// ListDistricts returns the districts of a province
func (h *Handler) ListDistricts(c *gin.Context) {
	province := c.Param("province")
	c.JSON(http.StatusOK, gin.H{
		"province":  province,
		"districts": h.advisory.Districts(province),
	})
}

// ListCommodities returns the commodities grown in a district
func (h *Handler) ListCommodities(c *gin.Context) {
	province, district := c.Param("province"), c.Param("district")
	c.JSON(http.StatusOK, gin.H{
		"province":    province,
		"district":    district,
		"commodities": h.advisory.Commodities(province, district),
	})
}

// Recommend answers a fertilizer recommendation query
func (h *Handler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.advisory.Recommend(c.Request.Context(), &domain.RecommendationQuery{
		Commodity: req.Commodity,
		Province:  req.Province,
		SoilPH:    *req.SoilPH,
		TempC:     *req.TempC,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.OK() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: result.Reason, Result: &result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Advise returns the full advisory for a farm
func (h *Handler) Advise(c *gin.Context) {
	var req domain.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	advisory, err := h.advisory.Advise(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, advisory)
}

// SubmitFeedback stores a feedback entry
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	saved, err := h.feedback.Submit(c.Request.Context(), &domain.Feedback{
		Name:    req.Name,
		Email:   req.Email,
		Rating:  req.Rating,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// ListFeedback returns recent feedback, newest first
func (h *Handler) ListFeedback(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	items, err := h.feedback.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items, "count": len(items)})
}

func respondBindError(c *gin.Context, err error) {
	var reqErr *validation.RequestValidationError
	if errors.As(err, &reqErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: domain.ErrInvalidRequest.Error(), Details: reqErr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
}

// respondError maps usecase errors to status codes
func respondError(c *gin.Context, err error) {
	var reqErr *validation.RequestValidationError
	switch {
	case errors.As(err, &reqErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: domain.ErrInvalidRequest.Error(), Details: reqErr.Fields})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoHistoricalData):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFitted):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		logging.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
