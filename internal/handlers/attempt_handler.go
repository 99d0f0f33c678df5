package handlers

import (
	"log/slog"
	"net/http"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

type startAttemptRequest struct {
	ExamID string `json:"exam_id" binding:"required"`
}

// StartAttempt begins or resumes the caller's attempt on an exam.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req startAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), req.ExamID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptQuestions returns the attempt's questions in the caller's
// locked-in order.
func (h *AttemptHandler) GetAttemptQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	questions, err := h.attemptService.Questions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: questions, Total: int64(len(questions))})
}

type submitAttemptRequest struct {
	Answers map[string]string `json:"answers"`
}

// SubmitAttempt grades and finalizes the caller's attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.Submit(c.Request.Context(), id, req.Answers, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Attempt submitted"})
}

func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	filters := repositories.AttemptFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if examID := c.Query("exam_id"); examID != "" {
		filters.ExamID = &examID
	}
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	if status := c.Query("status"); status != "" {
		s := models.AttemptStatus(status)
		filters.Status = &s
	}

	attempts, total, err := h.attemptService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: attempts, Total: total})
}
