package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
	"coursenova-backend/internal/repository"
	"coursenova-backend/internal/services"
)

type courseGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type quizStore interface {
	Upsert(ctx context.Context, q *models.Quiz) error
	GetByChapter(ctx context.Context, chapterID string) (*models.Quiz, error)
}

type quizGenerator interface {
	GenerateChapterQuiz(ctx context.Context, course *models.Course, chapterID string) (*models.Quiz, error)
}

type scoreRecorder interface {
	SetQuizScore(ctx context.Context, userID, courseID uuid.UUID, chapterID string, score int) (bool, error)
}

type QuizHandler struct {
	courses   courseGetter
	quizzes   quizStore
	generator quizGenerator
	scores    scoreRecorder
	log       *logger.Logger
}

func NewQuizHandler(courses courseGetter, quizzes quizStore, generator quizGenerator, scores scoreRecorder, log *logger.Logger) *QuizHandler {
	return &QuizHandler{
		courses:   courses,
		quizzes:   quizzes,
		generator: generator,
		scores:    scores,
		log:       log,
	}
}

// Generate creates (or replaces) the quiz for one chapter of a course.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	chapterID := chi.URLParam(r, "chapterID")

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		writeCourseLookupError(w, r, err)
		return
	}

	quiz, err := h.generator.GenerateChapterQuiz(r.Context(), course, chapterID)
	if err != nil {
		h.log.Warn("Chapter quiz generation failed", "course_id", courseID.String(), "chapter_id", chapterID, "error", err)
		handleServiceError(w, r, err)
		return
	}

	if err := h.quizzes.Upsert(r.Context(), quiz); err != nil {
		h.log.Error("Failed to store chapter quiz", "chapter_id", chapterID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save quiz", r))
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	chapterID := chi.URLParam(r, "chapterID")

	quiz, err := h.quizzes.GetByChapter(r.Context(), chapterID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.log.Error("Failed to load quiz", "chapter_id", chapterID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}
	if err != nil || quiz.CourseID != courseID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found for this chapter", r))
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// Submit grades a complete answer set and records the score on the caller's
// enrollment when one exists.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := actingUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	req.ChapterID = strings.TrimSpace(req.ChapterID)
	if req.ChapterID == "" {
		handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{"chapter_id": "Chapter ID is required"}})
		return
	}

	quiz, err := h.quizzes.GetByChapter(r.Context(), req.ChapterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found for this chapter", r))
			return
		}
		h.log.Error("Failed to load quiz", "chapter_id", req.ChapterID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	result, err := services.ScoreQuiz(quiz.Questions, services.PositionalAnswers(quiz.Questions, req.Answers))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	recorded, err := h.scores.SetQuizScore(r.Context(), userID, quiz.CourseID, quiz.ChapterID, result.Percentage)
	if err != nil {
		h.log.Error("Failed to record quiz score", "user_id", userID.String(), "chapter_id", quiz.ChapterID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record quiz score", r))
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitQuizResponse{
		Score:          result.Percentage,
		CorrectAnswers: result.CorrectCount,
		TotalQuestions: result.Total,
		Passed:         result.Passed,
		Recorded:       recorded,
	})
}
