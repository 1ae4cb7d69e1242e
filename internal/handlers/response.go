package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursenova-backend/internal/middleware"
	"coursenova-backend/internal/models"
	"coursenova-backend/internal/repository"
	"coursenova-backend/internal/services"
)

const maxBodyBytes = 1 << 20

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

// handleServiceError maps typed service errors onto HTTP responses. Anything
// unrecognised is a 500 and never leaks its message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		notFound   *services.NotFoundError
		forbidden  *services.ForbiddenError
		rateLimit  *services.RateLimitError
		generation *services.GenerationError
		malformed  *services.MalformedOutputError
		invalid    *services.InvalidCourseError
		missing    *services.MissingAnswersError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validation.Fields, r))
	case errors.As(err, &missing):
		fields := make(map[string]string, len(missing.QuestionIDs))
		for _, id := range missing.QuestionIDs {
			fields[id] = "Answer required"
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorRespWithFields("MISSING_ANSWERS", "Every question must be answered before submitting", fields, r))
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", conflict.Message, r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Resource not found", r))
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", forbidden.Message, r))
	case errors.As(err, &rateLimit):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rateLimit.Message, r))
	case errors.As(err, &generation):
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", "The AI model could not generate a response. Please try again.", r))
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusBadGateway, errorResp("MALFORMED_MODEL_OUTPUT", "The AI model returned an unreadable response. Please try again.", r))
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadGateway, errorResp("INVALID_COURSE_STRUCTURE",
			fmt.Sprintf("The generated course was incomplete (missing %s). Please try again.", strings.Join(invalid.Missing, ", ")), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// decodeBody reads a JSON body of at most maxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid "+label+" ID", r))
		return uuid.Nil, false
	}
	return id, true
}

// actingUser returns the authenticated user. A user id named in the request
// must be empty or match the token; callers cannot act for someone else.
func actingUser(r *http.Request, claimed uuid.UUID) (uuid.UUID, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, &services.ForbiddenError{Message: "Authentication required"}
	}
	if claimed != uuid.Nil && claimed != userID {
		return uuid.Nil, &services.ForbiddenError{Message: "Access denied"}
	}
	return userID, nil
}

// queryUser applies actingUser to the optional ?user_id= query parameter.
func queryUser(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if raw == "" {
		return actingUser(r, uuid.Nil)
	}
	claimed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &services.ValidationError{Fields: map[string]string{"user_id": "Invalid user ID"}}
	}
	return actingUser(r, claimed)
}

// optionalUUIDQuery parses an optional uuid query parameter.
func optionalUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{name: "Invalid " + name}}
	}
	return &id, nil
}

// writeCourseLookupError reports a failed course read. Only a missing row is
// a 404; store failures are 500s.
func writeCourseLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
}
