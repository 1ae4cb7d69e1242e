package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/middleware"
	"coursenova-backend/internal/models"
)

type dashboardStore interface {
	ListDashboard(ctx context.Context, userID uuid.UUID) ([]models.DashboardCourse, error)
	Stats(ctx context.Context, userID uuid.UUID) (models.DashboardStats, error)
}

type userStore interface {
	Touch(ctx context.Context, id uuid.UUID, email string) (*models.User, error)
}

type DashboardHandler struct {
	store dashboardStore
	users userStore
	log   *logger.Logger
}

func NewDashboardHandler(store dashboardStore, users userStore, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, users: users, log: log}
}

// Dashboard returns the caller's enrolled courses and aggregate stats.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUser(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var (
		courses []models.DashboardCourse
		stats   models.DashboardStats
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		courses, err = h.store.ListDashboard(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = h.store.Stats(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error("Failed to load dashboard", "user_id", userID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load dashboard", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"stats":   stats,
	})
}

// Me records the caller's identity from the token and returns it.
func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.users.Touch(r.Context(), userID, middleware.GetEmail(r.Context()))
	if err != nil {
		h.log.Error("Failed to record user", "user_id", userID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to CourseNova API"})
}
