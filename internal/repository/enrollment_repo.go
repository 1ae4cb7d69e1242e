package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type EnrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *EnrollmentRepo {
	return &EnrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, progress, completed_modules, completed_subtopics,
	quiz_scores_json, current_module, enrolled_at, last_accessed, completed_at`

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	var scores []byte

	err := row.Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.CompletedModules, &e.CompletedSubtopics,
		&scores, &e.CurrentModule, &e.EnrolledAt, &e.LastAccessed, &e.CompletedAt,
	)
	if err != nil {
		return nil, translateNotFound(err)
	}

	e.QuizScores = map[string]int{}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &e.QuizScores); err != nil {
			return nil, fmt.Errorf("failed to decode quiz scores for enrollment %s: %w", e.ID, err)
		}
	}
	if e.CompletedModules == nil {
		e.CompletedModules = []string{}
	}
	if e.CompletedSubtopics == nil {
		e.CompletedSubtopics = []string{}
	}
	return e, nil
}

// Enroll creates the (user, course) enrollment or returns the existing one.
// created reports whether a new row was inserted.
func (r *EnrollmentRepo) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, bool, error) {
	query := `INSERT INTO enrollments (id, user_id, course_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING ` + enrollmentColumns

	e, err := scanEnrollment(r.pool.QueryRow(ctx, query, uuid.New(), userID, courseID))
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	e, err = r.Get(ctx, userID, courseID)
	return e, false, err
}

func (r *EnrollmentRepo) Get(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	return scanEnrollment(r.pool.QueryRow(ctx, query, userID, courseID))
}

// UpdateProgress applies apply to the user's enrollment in courseID with the
// row locked, then persists the progress fields. An error from apply aborts
// the update and is returned unchanged. Quiz scores are written separately by
// SetQuizScore so a progress update cannot clobber a concurrent submission.
func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, apply func(*models.Enrollment) error) (*models.Enrollment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`
	e, err := scanEnrollment(tx.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		return nil, err
	}

	if err := apply(e); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE enrollments
		 SET progress = $1, completed_modules = $2, completed_subtopics = $3, current_module = $4,
		     last_accessed = $5, completed_at = $6
		 WHERE id = $7`,
		e.Progress, e.CompletedModules, e.CompletedSubtopics, e.CurrentModule,
		e.LastAccessed, e.CompletedAt, e.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update enrollment %s: %w", e.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit enrollment %s: %w", e.ID, err)
	}
	return e, nil
}

// SetQuizScore records score for chapterID on the user's enrollment in
// courseID. It reports false when the user is not enrolled.
func (r *EnrollmentRepo) SetQuizScore(ctx context.Context, userID, courseID uuid.UUID, chapterID string, score int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollments
		 SET quiz_scores_json = quiz_scores_json || jsonb_build_object($3::text, $4::int),
		     last_accessed = NOW()
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID, chapterID, score,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListDashboard returns the user's enrolled courses, most recently accessed first.
func (r *EnrollmentRepo) ListDashboard(ctx context.Context, userID uuid.UUID) ([]models.DashboardCourse, error) {
	query := `SELECT c.id, c.title, c.image_url, c.difficulty_level, jsonb_array_length(c.modules_json),
			e.progress, e.last_accessed, e.completed_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.last_accessed DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []models.DashboardCourse{}
	for rows.Next() {
		var dc models.DashboardCourse
		if err := rows.Scan(&dc.CourseID, &dc.Title, &dc.ImageURL, &dc.DifficultyLevel, &dc.ModuleCount,
			&dc.Progress, &dc.LastAccessed, &dc.CompletedAt); err != nil {
			return nil, err
		}
		courses = append(courses, dc)
	}
	return courses, rows.Err()
}

func (r *EnrollmentRepo) Stats(ctx context.Context, userID uuid.UUID) (models.DashboardStats, error) {
	var s models.DashboardStats
	query := `SELECT
			(SELECT COUNT(*) FROM enrollments WHERE user_id = $1),
			(SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND completed_at IS NOT NULL),
			(SELECT COALESCE(ROUND(AVG(progress)), 0)::int FROM enrollments WHERE user_id = $1),
			(SELECT COUNT(*) FROM notes WHERE user_id = $1),
			(SELECT COUNT(*) FROM bookmarks WHERE user_id = $1),
			(SELECT COUNT(*) FROM enrollments e, jsonb_each_text(e.quiz_scores_json) s
				WHERE e.user_id = $1 AND s.value::int >= $2)`

	err := r.pool.QueryRow(ctx, query, userID, models.PassingPercentage).Scan(
		&s.EnrolledCourses, &s.CompletedCourses, &s.AverageProgress,
		&s.Notes, &s.Bookmarks, &s.QuizzesPassed,
	)
	return s, err
}
