package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportExportService moves question banks in and out of the service as CSV
// or Excel files.
type ImportExportService interface {
	ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error)

	ExportQuestionsToCSV(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error)
	ExportAttemptResults(ctx context.Context, examID string) ([]byte, error)
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error) {
	s.logger.Info("Starting file import", "filename", filename, "creator_id", creatorID)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, file, topicID, schoolClassID, creatorID)
	case ".xlsx", ".xls":
		return s.ImportQuestionsFromExcel(ctx, file, topicID, schoolClassID, creatorID)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return s.importRows(ctx, records, topicID, schoolClassID, creatorID)
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows, topicID, schoolClassID, creatorID)
}

func (s *importExportService) importRows(ctx context.Context, records [][]string, topicID, schoolClassID, creatorID string) (*models.ImportSummary, error) {
	start := time.Now()

	if len(records) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(records))
	}

	headerMap := make(map[string]int)
	for i, header := range records[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}

	for _, col := range []string{"type", "question_text", "correct_answer"} {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	summary := &models.ImportSummary{
		TotalRows: len(records) - 1,
	}

	var questions []*models.Question

	for rowIndex, record := range records[1:] {
		question, rowErrors := s.parseRow(record, headerMap, rowIndex+2, topicID, schoolClassID, creatorID)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
		} else if question != nil {
			questions = append(questions, question)
			summary.SuccessCount++
		}
		summary.ProcessedRows++
	}

	if len(questions) > 0 {
		err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			return tx.Question().CreateBatch(ctx, questions)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save questions: %w", err)
		}
	}

	for _, q := range questions {
		summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
	}
	summary.ProcessingTime = time.Since(start)

	s.logger.Info("Question import completed",
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	if len(questions) > 0 {
		s.publishEvent(ctx, events.EventQuestionsImported, events.QuestionsSeededEvent{
			TopicID:       topicID,
			SchoolClassID: schoolClassID,
			QuestionIDs:   summary.CreatedQuestions,
			RequestedBy:   creatorID,
			SourceKind:    "import",
		})
	}

	return summary, nil
}

// ===== EXPORT OPERATIONS =====

var exportHeaders = []string{
	"Type", "Question Text", "Option A", "Option B", "Option C", "Option D",
	"Correct Answer", "Difficulty", "Explanation", "Last Used At",
}

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error) {
	questions, _, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for export: %w", err)
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, question := range questions {
		if err := writer.Write(questionToRow(question)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context, filters repositories.QuestionFilters) ([]byte, error) {
	questions, _, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for export: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Questions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, question := range questions {
		for colIndex, value := range questionToRow(question) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *importExportService) ExportAttemptResults(ctx context.Context, examID string) ([]byte, error) {
	if _, err := s.repo.Exam().GetByID(ctx, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{ExamID: &examID})
	if err != nil {
		return nil, fmt.Errorf("failed to list exam attempts: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Student ID", "Status", "Started At", "Submitted At", "Score"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.UserID,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
		}
		if attempt.SubmittedAt != nil {
			row = append(row, attempt.SubmittedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}
		if attempt.Score != nil {
			row = append(row, *attempt.Score)
		} else {
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

// ===== HELPER FUNCTIONS =====

var optionColumns = []string{"option_a", "option_b", "option_c", "option_d"}

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int, topicID, schoolClassID, creatorID string) (*models.Question, []models.ImportValidationError) {
	var rowErrors []models.ImportValidationError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	typeStr := strings.ToLower(getColumn("type"))
	qType := models.QuestionType(typeStr)
	if qType != models.MultipleChoice && qType != models.TrueFalse {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Field: "type", Message: fmt.Sprintf("unsupported question type: %s", typeStr),
		})
		return nil, rowErrors
	}

	text := getColumn("question_text")
	if text == "" {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Field: "question_text", Message: "required field",
		})
		return nil, rowErrors
	}

	difficulty := models.DifficultyMedium
	switch strings.ToLower(getColumn("difficulty")) {
	case "easy":
		difficulty = models.DifficultyEasy
	case "hard":
		difficulty = models.DifficultyHard
	}

	options, optionErrors := parseOptions(qType, getColumn, rowNum)
	if len(optionErrors) > 0 {
		return nil, optionErrors
	}

	question := &models.Question{
		ID:            uuid.NewString(),
		TopicID:       topicID,
		SchoolClassID: schoolClassID,
		Content:       text,
		Explanation:   getColumn("explanation"),
		Type:          qType,
		Difficulty:    difficulty,
		IsActive:      true,
		CreatedBy:     creatorID,
		Options:       options,
	}
	for i := range question.Options {
		question.Options[i].QuestionID = question.ID
	}

	if verrs := s.validator.Question().ValidateOptions(qType, question.Options); len(verrs) > 0 {
		for _, verr := range verrs {
			rowErrors = append(rowErrors, models.ImportValidationError{
				Row: rowNum, Field: verr.Field, Message: verr.Message,
			})
		}
		return nil, rowErrors
	}

	return question, nil
}

func parseOptions(qType models.QuestionType, getColumn func(string) string, rowNum int) ([]models.Option, []models.ImportValidationError) {
	var rowErrors []models.ImportValidationError

	if qType == models.TrueFalse {
		answer := strings.ToLower(getColumn("correct_answer"))
		if answer != "true" && answer != "false" {
			rowErrors = append(rowErrors, models.ImportValidationError{
				Row: rowNum, Field: "correct_answer", Message: "must be 'true' or 'false'",
			})
			return nil, rowErrors
		}
		return []models.Option{
			{ID: uuid.NewString(), Content: "True", IsCorrect: answer == "true", Position: 1},
			{ID: uuid.NewString(), Content: "False", IsCorrect: answer == "false", Position: 2},
		}, nil
	}

	var options []models.Option
	for i, colName := range optionColumns {
		if text := getColumn(colName); text != "" {
			options = append(options, models.Option{
				ID:       uuid.NewString(),
				Content:  text,
				Position: i + 1,
			})
		}
	}

	if len(options) < 2 {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Field: "options", Message: "must have at least 2 options",
		})
		return nil, rowErrors
	}

	// Correct answers are letters into the option columns, e.g. "A" or "B,D".
	marked := 0
	for _, part := range strings.Split(strings.ToUpper(getColumn("correct_answer")), ",") {
		part = strings.TrimSpace(part)
		if len(part) != 1 || part < "A" || part > "D" {
			continue
		}
		index := int(part[0] - 'A')
		if index < len(options) {
			options[index].IsCorrect = true
			marked++
		}
	}
	if marked == 0 {
		rowErrors = append(rowErrors, models.ImportValidationError{
			Row: rowNum, Field: "correct_answer", Message: "must mark at least one option (A, B, C or D)",
		})
		return nil, rowErrors
	}

	return options, nil
}

func questionToRow(question *models.Question) []string {
	row := make([]string, len(exportHeaders))
	row[0] = string(question.Type)
	row[1] = question.Content

	var correctLetters []string
	for i, option := range question.Options {
		if i < len(optionColumns) {
			row[2+i] = option.Content
			if option.IsCorrect {
				correctLetters = append(correctLetters, string(rune('A'+i)))
			}
		}
	}
	row[6] = strings.Join(correctLetters, ",")
	row[7] = string(question.Difficulty)
	row[8] = question.Explanation
	if question.LastUsedAt != nil {
		row[9] = question.LastUsedAt.Format("2006-01-02 15:04:05")
	}

	return row
}

func (s *importExportService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	event := &events.ExamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "cbt-service",
		Version:   "1.0",
		Data:      data,
	}
	if err := s.publisher.PublishExamEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish import event", "event_type", eventType, "error", err)
	}
}
