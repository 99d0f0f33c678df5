package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func generationFixtures() (*models.Topic, *models.SchoolClass) {
	topic := &models.Topic{
		ID:        "11111111-1111-1111-1111-111111111111",
		SubjectID: "subject-1",
		Name:      "Fractions",
		Subject:   models.Subject{ID: "subject-1", Name: "Mathematics"},
	}
	class := &models.SchoolClass{
		ID:   "22222222-2222-2222-2222-222222222222",
		Name: "JSS 2",
	}
	return topic, class
}

func TestGenerateQuestions_SavesGatewayOutput(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/questions/generate", r.URL.Path)

		var req gatewayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Fractions", req.Topic)
		assert.Equal(t, "Mathematics", req.Subject)

		resp := gatewayResponse{Questions: []gatewayQuestion{
			{
				Text:       "What is 1/2 + 1/4?",
				Type:       "multiple_choice",
				Difficulty: "easy",
				Options: []struct {
					Text      string `json:"text"`
					IsCorrect bool   `json:"is_correct"`
				}{
					{Text: "3/4", IsCorrect: true},
					{Text: "1/4"},
					{Text: "2/6"},
				},
			},
			{
				// Malformed: no options, should be dropped not fatal.
				Text: "Broken question",
				Type: "multiple_choice",
			},
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer gateway.Close()

	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewGenerationService(repo, testLogger(), validator.New(), publisher,
		gateway.URL, "test-key", 5*time.Second)

	topic, class := generationFixtures()
	repo.topic.On("GetByIDWithSubject", mock.Anything, topic.ID).Return(topic, nil)
	repo.schoolClass.On("GetByID", mock.Anything, class.ID).Return(class, nil)

	var saved []*models.Question
	repo.question.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).([]*models.Question)
		}).Return(nil)

	questions, err := svc.GenerateQuestions(context.Background(), GenerateQuestionsRequest{
		TopicID:       topic.ID,
		SchoolClassID: class.ID,
		Count:         2,
	}, "teacher-1")

	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Len(t, saved, 1)
	assert.Equal(t, "What is 1/2 + 1/4?", saved[0].Content)
	assert.Equal(t, topic.ID, saved[0].TopicID)
	assert.True(t, saved[0].IsActive)
	require.Len(t, saved[0].Options, 3)
	assert.True(t, saved[0].Options[0].IsCorrect)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuestionsSeeded, published[0].Type)
	repo.AssertExpectations(t)
}

func TestGenerateQuestions_GatewayErrorSurfaces(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(gatewayError{Message: "model unavailable"})
	}))
	defer gateway.Close()

	repo := NewMockRepository()
	svc := NewGenerationService(repo, testLogger(), validator.New(),
		events.NewMockEventPublisher(testLogger()), gateway.URL, "test-key", 5*time.Second)

	topic, class := generationFixtures()
	repo.topic.On("GetByIDWithSubject", mock.Anything, topic.ID).Return(topic, nil)
	repo.schoolClass.On("GetByID", mock.Anything, class.ID).Return(class, nil)

	_, err := svc.GenerateQuestions(context.Background(), GenerateQuestionsRequest{
		TopicID:       topic.ID,
		SchoolClassID: class.ID,
		Count:         1,
	}, "teacher-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	repo.question.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestGenerateQuestions_ValidatesRequest(t *testing.T) {
	repo := NewMockRepository()
	svc := NewGenerationService(repo, testLogger(), validator.New(),
		events.NewMockEventPublisher(testLogger()), "http://localhost:0", "", time.Second)

	_, err := svc.GenerateQuestions(context.Background(), GenerateQuestionsRequest{
		TopicID: "not-a-uuid",
		Count:   0,
	}, "teacher-1")

	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
