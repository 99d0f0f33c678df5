package handlers

import (
	"log/slog"
	"net/http"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService   services.QuestionService
	importExport      services.ImportExportService
	generationService services.GenerationService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExport services.ImportExportService,
	generationService services.GenerationService,
	logger *slog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:       NewBaseHandler(logger),
		questionService:   questionService,
		importExport:      importExport,
		generationService: generationService,
	}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := questionFiltersFromQuery(c)

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: questions, Total: total})
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	id := parseIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// ImportQuestions accepts a CSV or Excel file upload and loads its rows
// into the question bank.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	topicID := c.PostForm("topic_id")
	schoolClassID := c.PostForm("school_class_id")
	if topicID == "" || schoolClassID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "topic_id and school_class_id form fields are required",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	summary, err := h.importExport.ImportQuestionsFromFile(c.Request.Context(), file, header.Filename, topicID, schoolClassID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportQuestions downloads the filtered question bank as CSV or Excel.
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := questionFiltersFromQuery(c)
	// Exports are not paginated.
	filters.Limit = 0
	filters.Offset = 0

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		data, err := h.importExport.ExportQuestionsToCSV(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="questions.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.importExport.ExportQuestionsToExcel(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: format,
		})
	}
}

// GenerateQuestions seeds the question bank from the AI gateway.
func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	questions, err := h.generationService.GenerateQuestions(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ListResponse{Data: questions, Total: int64(len(questions))})
}

func questionFiltersFromQuery(c *gin.Context) repositories.QuestionFilters {
	filters := repositories.QuestionFilters{
		Search: c.Query("search"),
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if subjectID := c.Query("subject_id"); subjectID != "" {
		filters.SubjectID = &subjectID
	}
	if classID := c.Query("school_class_id"); classID != "" {
		filters.SchoolClassID = &classID
	}
	if topicID := c.Query("topic_id"); topicID != "" {
		filters.TopicID = &topicID
	}
	if qType := c.Query("type"); qType != "" {
		t := models.QuestionType(qType)
		filters.Type = &t
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := models.DifficultyLevel(difficulty)
		filters.Difficulty = &d
	}
	return filters
}
