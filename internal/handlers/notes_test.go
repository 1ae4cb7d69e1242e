package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"coursenova-backend/internal/middleware"
	"coursenova-backend/internal/models"
)

type stubNoteRepo struct {
	notes map[string]*models.Note
}

func (s *stubNoteRepo) Upsert(ctx context.Context, n *models.Note) error {
	if s.notes == nil {
		s.notes = map[string]*models.Note{}
	}
	s.notes[n.UserID.String()+"/"+n.SubtopicID] = n
	return nil
}

func (s *stubNoteRepo) List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Note, error) {
	var out []models.Note
	for _, n := range s.notes {
		if n.UserID != userID || (courseID != nil && n.CourseID != *courseID) {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

type stubBookmarkRepo struct {
	seen map[string]bool
}

func (s *stubBookmarkRepo) Create(ctx context.Context, b *models.Bookmark) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	key := b.UserID.String() + "/" + b.SubtopicID
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubBookmarkRepo) List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Bookmark, error) {
	return nil, nil
}

func TestNoteHandler_SaveNoteLastWriteWins(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(uuid.New())
	notes := &stubNoteRepo{}
	h := NewNoteHandler(newStubCourseRepo(course), notes, &stubBookmarkRepo{}, testLogger())

	for _, content := range []string{"first draft", "final version"} {
		rr := httptest.NewRecorder()
		h.SaveNote(rr, newRequest(t, http.MethodPost, "/api/v1/notes", models.NoteRequest{
			CourseID: course.ID, SubtopicID: "m1-s1", Content: content,
		}, me, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
		}
	}

	if len(notes.notes) != 1 {
		t.Fatalf("expected one note per subtopic, got %d", len(notes.notes))
	}
	for _, n := range notes.notes {
		if n.Content != "final version" {
			t.Fatalf("expected last write to win, got %q", n.Content)
		}
	}
}

func TestNoteHandler_SaveNoteValidation(t *testing.T) {
	course := fixtureCourse(uuid.New())
	h := NewNoteHandler(newStubCourseRepo(course), &stubNoteRepo{}, &stubBookmarkRepo{}, testLogger())

	tests := []struct {
		name   string
		req    models.NoteRequest
		status int
	}{
		{"empty content", models.NoteRequest{CourseID: course.ID, SubtopicID: "m1-s1", Content: "  "}, http.StatusBadRequest},
		{"missing course", models.NoteRequest{SubtopicID: "m1-s1", Content: "x"}, http.StatusBadRequest},
		{"subtopic of another course", models.NoteRequest{CourseID: course.ID, SubtopicID: "elsewhere", Content: "x"}, http.StatusNotFound},
		{"unknown course", models.NoteRequest{CourseID: uuid.New(), SubtopicID: "m1-s1", Content: "x"}, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.SaveNote(rr, newRequest(t, http.MethodPost, "/", tc.req, uuid.New(), nil))
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestNoteHandler_ListNotesFiltersByCourse(t *testing.T) {
	me := uuid.New()
	courseA, courseB := uuid.New(), uuid.New()
	notes := &stubNoteRepo{notes: map[string]*models.Note{
		"a": {UserID: me, CourseID: courseA, SubtopicID: "a"},
		"b": {UserID: me, CourseID: courseB, SubtopicID: "b"},
	}}
	h := NewNoteHandler(newStubCourseRepo(), notes, &stubBookmarkRepo{}, testLogger())

	rr := httptest.NewRecorder()
	h.ListNotes(rr, newRequest(t, http.MethodGet, "/api/v1/notes?user_id="+me.String()+"&course_id="+courseA.String(), nil, me, nil))

	var body struct {
		Notes []models.Note `json:"notes"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Notes) != 1 || body.Notes[0].CourseID != courseA {
		t.Fatalf("expected only course A notes, got %+v", body.Notes)
	}
}

func TestNoteHandler_ListNotesOtherUser(t *testing.T) {
	h := NewNoteHandler(newStubCourseRepo(), &stubNoteRepo{}, &stubBookmarkRepo{}, testLogger())

	rr := httptest.NewRecorder()
	h.ListNotes(rr, newRequest(t, http.MethodGet, "/api/v1/notes?user_id="+uuid.New().String(), nil, uuid.New(), nil))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestNoteHandler_CreateBookmarkIdempotent(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(uuid.New())
	h := NewNoteHandler(newStubCourseRepo(course), &stubNoteRepo{}, &stubBookmarkRepo{}, testLogger())
	body := models.BookmarkRequest{UserID: me, CourseID: course.ID, SubtopicID: "m2-s1"}

	for i, want := range []int{http.StatusCreated, http.StatusOK} {
		rr := httptest.NewRecorder()
		h.CreateBookmark(rr, newRequest(t, http.MethodPost, "/", body, me, nil))
		if rr.Code != want {
			t.Fatalf("call %d: expected status %d, got %d", i, want, rr.Code)
		}
	}
}

func TestNoteHandler_CourseLookupFailure(t *testing.T) {
	me := uuid.New()
	body := models.BookmarkRequest{CourseID: uuid.New(), SubtopicID: "m1-s1"}

	missing := NewNoteHandler(newStubCourseRepo(), &stubNoteRepo{}, &stubBookmarkRepo{}, testLogger())
	rr := httptest.NewRecorder()
	missing.CreateBookmark(rr, newRequest(t, http.MethodPost, "/", body, me, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown course: expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	repo := newStubCourseRepo()
	repo.getErr = errors.New("connection reset by peer")
	notes := &stubNoteRepo{}
	broken := NewNoteHandler(repo, notes, &stubBookmarkRepo{}, testLogger())
	rr = httptest.NewRecorder()
	broken.SaveNote(rr, newRequest(t, http.MethodPost, "/", models.NoteRequest{
		CourseID: body.CourseID, SubtopicID: "m1-s1", Content: "draft",
	}, me, nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("store failure: expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if len(notes.notes) != 0 {
		t.Fatalf("note must not be saved when the course cannot be loaded")
	}
}

type stubDashboardStore struct {
	statsErr error
}

func (s *stubDashboardStore) ListDashboard(ctx context.Context, userID uuid.UUID) ([]models.DashboardCourse, error) {
	return []models.DashboardCourse{{CourseID: uuid.New(), Title: "Ownership in Rust", Progress: 40}}, nil
}

func (s *stubDashboardStore) Stats(ctx context.Context, userID uuid.UUID) (models.DashboardStats, error) {
	return models.DashboardStats{EnrolledCourses: 1, AverageProgress: 40}, s.statsErr
}

type stubUserRepo struct {
	touched string
}

func (s *stubUserRepo) Touch(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	s.touched = email
	return &models.User{ID: id, Email: email}, nil
}

func TestDashboardHandler_Dashboard(t *testing.T) {
	me := uuid.New()
	h := NewDashboardHandler(&stubDashboardStore{}, &stubUserRepo{}, testLogger())

	rr := httptest.NewRecorder()
	h.Dashboard(rr, newRequest(t, http.MethodGet, "/api/v1/dashboard", nil, me, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var body struct {
		Courses []models.DashboardCourse `json:"courses"`
		Stats   models.DashboardStats    `json:"stats"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Courses) != 1 || body.Stats.EnrolledCourses != 1 {
		t.Fatalf("unexpected dashboard %+v", body)
	}
}

func TestDashboardHandler_DashboardStoreFailure(t *testing.T) {
	h := NewDashboardHandler(&stubDashboardStore{statsErr: errors.New("db down")}, &stubUserRepo{}, testLogger())

	rr := httptest.NewRecorder()
	h.Dashboard(rr, newRequest(t, http.MethodGet, "/", nil, uuid.New(), nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestDashboardHandler_MeTouchesUser(t *testing.T) {
	me := uuid.New()
	users := &stubUserRepo{}
	h := NewDashboardHandler(&stubDashboardStore{}, users, testLogger())

	req := newRequest(t, http.MethodGet, "/api/v1/me", nil, me, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.EmailKey, "ada@example.com"))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if users.touched != "ada@example.com" {
		t.Fatalf("expected token email to be recorded, got %q", users.touched)
	}
}
