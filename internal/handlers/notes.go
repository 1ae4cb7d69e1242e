package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
	"coursenova-backend/internal/repository"
	"coursenova-backend/internal/services"
)

const maxNoteLength = 20000

type noteStore interface {
	Upsert(ctx context.Context, n *models.Note) error
	List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Note, error)
}

type bookmarkStore interface {
	Create(ctx context.Context, b *models.Bookmark) (bool, error)
	List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Bookmark, error)
}

// NoteHandler serves notes and bookmarks, both keyed by (user, subtopic).
type NoteHandler struct {
	courses   courseGetter
	notes     noteStore
	bookmarks bookmarkStore
	log       *logger.Logger
}

func NewNoteHandler(courses courseGetter, notes noteStore, bookmarks bookmarkStore, log *logger.Logger) *NoteHandler {
	return &NoteHandler{
		courses:   courses,
		notes:     notes,
		bookmarks: bookmarks,
		log:       log,
	}
}

// checkSubtopic verifies that subtopicID belongs to courseID.
func (h *NoteHandler) checkSubtopic(ctx context.Context, courseID uuid.UUID, subtopicID string) error {
	course, err := h.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &services.NotFoundError{Message: "Course not found"}
		}
		return fmt.Errorf("failed to load course %s: %w", courseID, err)
	}
	if _, st := course.FindSubtopic(subtopicID); st == nil {
		return &services.NotFoundError{Message: "Subtopic not found in this course"}
	}
	return nil
}

func (h *NoteHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := actingUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	fields := map[string]string{}
	req.SubtopicID = strings.TrimSpace(req.SubtopicID)
	if req.CourseID == uuid.Nil {
		fields["course_id"] = "Course ID is required"
	}
	if req.SubtopicID == "" {
		fields["subtopic_id"] = "Subtopic ID is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "Note content is required"
	} else if utf8.RuneCountInString(req.Content) > maxNoteLength {
		fields["content"] = "Note is too long"
	}
	if len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	if err := h.checkSubtopic(r.Context(), req.CourseID, req.SubtopicID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	note := &models.Note{
		UserID:     userID,
		CourseID:   req.CourseID,
		SubtopicID: req.SubtopicID,
		Content:    req.Content,
	}
	if err := h.notes.Upsert(r.Context(), note); err != nil {
		h.log.Error("Failed to save note", "user_id", userID.String(), "subtopic_id", req.SubtopicID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save note", r))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	courseID, err := optionalUUIDQuery(r, "course_id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	notes, err := h.notes.List(r.Context(), userID, courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch notes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *NoteHandler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req models.BookmarkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := actingUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	req.SubtopicID = strings.TrimSpace(req.SubtopicID)
	if req.CourseID == uuid.Nil || req.SubtopicID == "" {
		handleServiceError(w, r, &services.ValidationError{Fields: map[string]string{
			"subtopic_id": "Course ID and subtopic ID are required",
		}})
		return
	}

	if err := h.checkSubtopic(r.Context(), req.CourseID, req.SubtopicID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	bookmark := &models.Bookmark{UserID: userID, CourseID: req.CourseID, SubtopicID: req.SubtopicID}
	created, err := h.bookmarks.Create(r.Context(), bookmark)
	if err != nil {
		h.log.Error("Failed to save bookmark", "user_id", userID.String(), "subtopic_id", req.SubtopicID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save bookmark", r))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, bookmark)
}

func (h *NoteHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	courseID, err := optionalUUIDQuery(r, "course_id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	bookmarks, err := h.bookmarks.List(r.Context(), userID, courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch bookmarks", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookmarks": bookmarks})
}
