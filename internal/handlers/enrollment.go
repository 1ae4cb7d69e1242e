package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
	"coursenova-backend/internal/repository"
	"coursenova-backend/internal/services"
)

type enrollmentStore interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, bool, error)
	Get(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, apply func(*models.Enrollment) error) (*models.Enrollment, error)
}

type EnrollmentHandler struct {
	courses     courseGetter
	enrollments enrollmentStore
	now         func() time.Time
	log         *logger.Logger
}

func NewEnrollmentHandler(courses courseGetter, enrollments enrollmentStore, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		courses:     courses,
		enrollments: enrollments,
		now:         time.Now,
		log:         log,
	}
}

func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	userID, err := actingUser(r, uuid.Nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if _, err := h.courses.GetByID(r.Context(), courseID); err != nil {
		writeCourseLookupError(w, r, err)
		return
	}

	enrollment, created, err := h.enrollments.Enroll(r.Context(), userID, courseID)
	if err != nil {
		h.log.Error("Failed to enroll", "user_id", userID.String(), "course_id", courseID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enroll", r))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, enrollment)
}

func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	userID, err := queryUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	enrollment, err := h.enrollments.Get(r.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Not enrolled in this course", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch enrollment", r))
		return
	}

	writeJSON(w, http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	courseID, ok := uuidParam(w, r, "courseID", "course")
	if !ok {
		return
	}
	userID, err := actingUser(r, uuid.Nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req models.UpdateProgressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		writeCourseLookupError(w, r, err)
		return
	}

	enrollment, err := h.enrollments.UpdateProgress(r.Context(), userID, courseID, func(e *models.Enrollment) error {
		return services.ApplyProgressUpdate(e, req, course, h.now().UTC())
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Not enrolled in this course", r))
			return
		}
		h.log.Warn("Progress update failed", "user_id", userID.String(), "course_id", courseID.String(), "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enrollment)
}
