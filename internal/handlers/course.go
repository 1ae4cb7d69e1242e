package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
	"coursenova-backend/internal/services"
)

const subtopicLockTTL = 3 * time.Minute

type courseStore interface {
	Create(ctx context.Context, c *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Course, error)
	SetSubtopicContent(ctx context.Context, courseID uuid.UUID, subtopicID, content string, videos []models.Video, articles []models.Article) (*models.Subtopic, bool, error)
}

type courseGenerator interface {
	GenerateCourse(ctx context.Context, req services.CourseRequest) (*models.Course, error)
	GenerateSubtopicContent(ctx context.Context, courseTitle, moduleTitle, subtopicTitle, difficulty string) (string, error)
	EnrichSubtopic(ctx context.Context, course *models.Course, subtopicTitle string) services.Enrichment
	GenerateChapterQuiz(ctx context.Context, course *models.Course, chapterID string) (*models.Quiz, error)
}

type CourseHandler struct {
	courses   courseStore
	generator courseGenerator
	locker    services.Locker
	notifier  services.StatusPublisher
	log       *logger.Logger
}

// NewCourseHandler wires the course endpoints. locker may be nil, in which
// case concurrent content requests are resolved by the store alone. notifier
// may be nil.
func NewCourseHandler(courses courseStore, generator courseGenerator, locker services.Locker, notifier services.StatusPublisher, log *logger.Logger) *CourseHandler {
	return &CourseHandler{
		courses:   courses,
		generator: generator,
		locker:    locker,
		notifier:  notifier,
		log:       log,
	}
}

func (h *CourseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateCourseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := actingUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	log := h.log.With("user_id", userID.String(), "topic", req.Topic)

	course, err := h.generator.GenerateCourse(r.Context(), services.CourseRequest{
		Topic:      req.Topic,
		Audience:   req.Audience,
		Difficulty: req.Difficulty,
		UserID:     userID,
	})
	if err != nil {
		log.Warn("Course generation failed", "error", err)
		handleServiceError(w, r, err)
		return
	}

	if err := h.courses.Create(r.Context(), course); err != nil {
		log.Error("Failed to store generated course", "course_id", course.ID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save course", r))
		return
	}

	if h.notifier != nil {
		h.notifier.PublishUpdate(r.Context(), userID, models.WSMessage{
			Type:    "completed",
			Payload: models.CompletedEvent{ResultID: course.ID.String(), ResultType: "course"},
		})
	}
	log.Info("Course generated", "course_id", course.ID.String())

	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	courses, err := h.courses.ListByUser(r.Context(), userID, 100)
	if err != nil {
		h.log.Error("Failed to list courses", "user_id", userID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch courses", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		writeCourseLookupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}

// SubtopicContent returns the lesson for a subtopic, generating and storing it
// on first request. Stored content is never regenerated.
func (h *CourseHandler) SubtopicContent(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	subtopicID := chi.URLParam(r, "subtopicID")

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		writeCourseLookupError(w, r, err)
		return
	}

	module, subtopic := course.FindSubtopic(subtopicID)
	if subtopic == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subtopic not found", r))
		return
	}

	if subtopic.Content != nil {
		writeJSON(w, http.StatusOK, subtopicResponse(subtopic, true))
		return
	}

	if h.locker != nil {
		lockKey := "subtopic_lock:" + subtopicID
		locked, err := h.locker.Acquire(r.Context(), lockKey, subtopicLockTTL)
		if err != nil {
			h.log.Warn("Subtopic lock unavailable, generating without it", "subtopic_id", subtopicID, "error", err)
		} else if !locked {
			handleServiceError(w, r, &services.ConflictError{Message: "Content for this subtopic is already being generated. Please retry shortly."})
			return
		} else {
			defer h.locker.Release(context.WithoutCancel(r.Context()), lockKey)

			// The previous holder may have stored content since the first read.
			if fresh, err := h.courses.GetByID(r.Context(), courseID); err == nil {
				if _, st := fresh.FindSubtopic(subtopicID); st != nil && st.Content != nil {
					writeJSON(w, http.StatusOK, subtopicResponse(st, true))
					return
				}
			}
		}
	}

	content, err := h.generator.GenerateSubtopicContent(r.Context(), course.Title, module.Title, subtopic.Title, course.DifficultyLevel)
	if err != nil {
		h.log.Warn("Subtopic generation failed", "course_id", courseID.String(), "subtopic_id", subtopicID, "error", err)
		handleServiceError(w, r, err)
		return
	}

	enrichment := h.generator.EnrichSubtopic(r.Context(), course, subtopic.Title)

	stored, created, err := h.courses.SetSubtopicContent(r.Context(), courseID, subtopicID, content, enrichment.Videos, enrichment.Articles)
	if err != nil {
		h.log.Error("Failed to store subtopic content", "course_id", courseID.String(), "subtopic_id", subtopicID, "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, subtopicResponse(stored, !created))
}

func subtopicResponse(st *models.Subtopic, cached bool) models.SubtopicContentResponse {
	resp := models.SubtopicContentResponse{
		SubtopicID: st.ID,
		Cached:     cached,
		Videos:     st.Videos,
		Articles:   st.Articles,
	}
	if st.Content != nil {
		resp.Content = *st.Content
	}
	return resp
}
