package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	BaseHandler
	examService   services.ExamService
	exportService services.ImportExportService
}

func NewExamHandler(examService services.ExamService, exportService services.ImportExportService, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler:   NewBaseHandler(logger),
		examService:   examService,
		exportService: exportService,
	}
}

// CreateExam creates a new exam in draft status
func (h *ExamHandler) CreateExam(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

func (h *ExamHandler) GetExam(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GetExamWithQuestions returns the exam with its full question set, for
// exam authors reviewing the selection.
func (h *ExamHandler) GetExamWithQuestions(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	exam, err := h.examService.GetWithQuestions(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) ListExams(c *gin.Context) {
	filters := repositories.ExamFilters{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := models.ExamStatus(status)
		filters.Status = &s
	}
	if subjectID := c.Query("subject_id"); subjectID != "" {
		filters.SubjectID = &subjectID
	}
	if classID := c.Query("school_class_id"); classID != "" {
		filters.SchoolClassID = &classID
	}

	exams, total, err := h.examService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: exams, Total: total})
}

type updateStatusRequest struct {
	Status models.ExamStatus `json:"status" binding:"required"`
}

func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.examService.UpdateStatus(c.Request.Context(), id, req.Status, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam status updated"})
}

type setQuestionsRequest struct {
	QuestionIDs []string `json:"question_ids" binding:"required,min=1"`
}

// SetExamQuestions replaces the exam's question set with an explicit list.
func (h *ExamHandler) SetExamQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	var req setQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.examService.SetQuestions(c.Request.Context(), id, req.QuestionIDs, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam questions updated"})
}

type rotateQuestionsRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// RotateExamQuestions auto-selects the exam's question set under the
// rotation policy.
func (h *ExamHandler) RotateExamQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	var req rotateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	selected, err := h.examService.AutoSelectQuestions(c.Request.Context(), id, req.Count, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam questions rotated",
		Data: map[string]interface{}{
			"requested": req.Count,
			"selected":  selected,
		},
	})
}

func (h *ExamHandler) GetAvailableQuestions(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	questions, total, err := h.examService.AvailableQuestions(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: questions, Total: total})
}

// ExportExamResults streams the exam's attempt results as an Excel workbook.
func (h *ExamHandler) ExportExamResults(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	data, err := h.exportService.ExportAttemptResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="exam-results.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	value := c.Query(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
