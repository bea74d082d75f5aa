package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/domain"
	"github.com/kidney-health-score-server/internal/feedback"
	"github.com/kidney-health-score-server/internal/interpret"
	"github.com/kidney-health-score-server/internal/service"
)

// ScoreReadingRequest is the POST /health-metrics payload.
type ScoreReadingRequest struct {
	UserID       string                  `json:"user_id"`
	Reading      domain.HealthReading    `json:"reading"`
	Demographics *interpret.Demographics `json:"demographics,omitempty"`
	Persist      bool                    `json:"persist"`
}

type errorResponse struct {
	Error         string      `json:"error"`
	Code          string      `json:"code"`
	Field         string      `json:"field,omitempty"`
	Value         interface{} `json:"value,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

func (s *Server) handleScoreReading(c *gin.Context) {
	var req ScoreReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "malformed request body: " + err.Error(),
			Code:          domain.ErrCodeInvalidInput,
			CorrelationID: c.GetString("correlation_id"),
		})
		return
	}

	if req.Persist && req.UserID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "user_id is required when persist is set",
			Code:          domain.ErrCodeInvalidInput,
			CorrelationID: c.GetString("correlation_id"),
		})
		return
	}

	result, err := s.deps.Metrics.ScoreReading(c.Request.Context(), &service.ScoreReadingParams{
		UserID:       req.UserID,
		Reading:      req.Reading,
		Demographics: req.Demographics,
		Persist:      req.Persist,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	userID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))

	samples, err := s.deps.Metrics.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"samples": samples,
		"count":   len(samples),
	})
}

func (s *Server) handleGetLatest(c *gin.Context) {
	userID := c.Param("id")

	record, err := s.deps.Metrics.GetLatest(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListReadings(c *gin.Context) {
	userID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := s.deps.Metrics.ListReadings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"readings": records,
		"count":    len(records),
	})
}

func (s *Server) handleSaveFeedback(c *gin.Context) {
	var fb feedback.Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "malformed request body: " + err.Error(),
			Code:          domain.ErrCodeInvalidInput,
			CorrelationID: c.GetString("correlation_id"),
		})
		return
	}

	if fb.UserID == "" || fb.RecordID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "user_id and record_id are required",
			Code:          domain.ErrCodeInvalidInput,
			CorrelationID: c.GetString("correlation_id"),
		})
		return
	}
	if fb.Rating < 0 || fb.Rating > 5 {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         "rating must be between 0 and 5",
			Code:          domain.ErrCodeInvalidInput,
			Field:         "rating",
			CorrelationID: c.GetString("correlation_id"),
		})
		return
	}

	if err := s.deps.Feedback.Save(c.Request.Context(), &fb); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fb)
}

func (s *Server) handleListFeedback(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := s.deps.Feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	count, err := s.deps.Feedback.Count(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": entries,
		"total":    count,
	})
}

// respondError maps pipeline errors onto HTTP statuses: input errors are
// client errors, missing data is 404, anything else is a 500 with the detail
// kept in the server log.
func (s *Server) respondError(c *gin.Context, err error) {
	correlationID := c.GetString("correlation_id")

	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:         inputErr.Message,
			Code:          domain.ErrCodeInvalidInput,
			Field:         inputErr.Field,
			Value:         inputErr.Value,
			CorrelationID: correlationID,
		})
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{
			Error:         "not found",
			Code:          domain.ErrCodeDatabaseError,
			CorrelationID: correlationID,
		})
		return
	}

	s.log.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"error":          err,
	}).Error("Request failed")

	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:         "internal server error",
		Code:          domain.ErrCodeInternalServer,
		CorrelationID: correlationID,
	})
}
