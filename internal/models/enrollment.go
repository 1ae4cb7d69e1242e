package models

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID                 uuid.UUID      `json:"id"`
	UserID             uuid.UUID      `json:"user_id"`
	CourseID           uuid.UUID      `json:"course_id"`
	Progress           int            `json:"progress"`
	CompletedModules   []string       `json:"completed_modules"`
	CompletedSubtopics []string       `json:"completed_subtopics"`
	QuizScores         map[string]int `json:"quiz_scores"`
	CurrentModule      int            `json:"current_module"`
	EnrolledAt         time.Time      `json:"enrolled_at"`
	LastAccessed       time.Time      `json:"last_accessed"`
	CompletedAt        *time.Time     `json:"completed_at"`
}

type UpdateProgressRequest struct {
	Progress            *int    `json:"progress"`
	CompletedModuleID   *string `json:"completed_module_id"`
	CompletedSubtopicID *string `json:"completed_subtopic_id"`
	CurrentModule       *int    `json:"current_module"`
}

type Note struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	SubtopicID string    `json:"subtopic_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Bookmark struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	SubtopicID string    `json:"subtopic_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type NoteRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	SubtopicID string    `json:"subtopic_id"`
	Content    string    `json:"content"`
}

type BookmarkRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	SubtopicID string    `json:"subtopic_id"`
}

// DashboardCourse is one row of the dashboard course list.
type DashboardCourse struct {
	CourseID        uuid.UUID  `json:"course_id"`
	Title           string     `json:"title"`
	ImageURL        string     `json:"image_url"`
	DifficultyLevel string     `json:"difficulty_level"`
	ModuleCount     int        `json:"module_count"`
	Progress        int        `json:"progress"`
	LastAccessed    time.Time  `json:"last_accessed"`
	CompletedAt     *time.Time `json:"completed_at"`
}

type DashboardStats struct {
	EnrolledCourses  int `json:"enrolled_courses"`
	CompletedCourses int `json:"completed_courses"`
	AverageProgress  int `json:"average_progress"`
	Notes            int `json:"notes"`
	Bookmarks        int `json:"bookmarks"`
	QuizzesPassed    int `json:"quizzes_passed"`
}
