package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

const courseColumns = `id, topic, title, description, image_url, difficulty_level, estimated_duration,
	target_audience, modules_json, glossary_json, roadmap_json, quiz_json, resources_json,
	created_by, created_at, updated_at`

func marshalOr(v interface{}, fallback string) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return []byte(fallback)
	}
	return b
}

// Create inserts a fully validated course. It is the only write a generation
// ever makes, so a failed generation leaves no row behind.
func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	query := `INSERT INTO courses (id, topic, title, description, image_url, difficulty_level,
			estimated_duration, target_audience, modules_json, glossary_json, roadmap_json,
			quiz_json, resources_json, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.Topic, c.Title, c.Description, c.ImageURL, c.DifficultyLevel,
		c.EstimatedDuration, c.TargetAudience,
		marshalOr(c.Modules, "[]"), marshalOr(c.Glossary, "[]"), marshalOr(c.Roadmap, "[]"),
		marshalOr(c.Quiz, "[]"), marshalOr(c.Resources, `{"articles":[],"videos":[]}`),
		c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	var modules, glossary, roadmap, quiz, resources []byte

	err := row.Scan(
		&c.ID, &c.Topic, &c.Title, &c.Description, &c.ImageURL, &c.DifficultyLevel,
		&c.EstimatedDuration, &c.TargetAudience, &modules, &glossary, &roadmap, &quiz,
		&resources, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, translateNotFound(err)
	}

	for _, col := range []struct {
		name string
		data []byte
		dst  interface{}
	}{
		{"modules_json", modules, &c.Modules},
		{"glossary_json", glossary, &c.Glossary},
		{"roadmap_json", roadmap, &c.Roadmap},
		{"quiz_json", quiz, &c.Quiz},
		{"resources_json", resources, &c.Resources},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s for course %s: %w", col.name, c.ID, err)
		}
	}

	if c.Resources.Articles == nil {
		c.Resources.Articles = []models.Article{}
	}
	if c.Resources.Videos == nil {
		c.Resources.Videos = []models.Video{}
	}
	return c, nil
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourse(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns the courses userID generated, newest first.
func (r *CourseRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := `SELECT ` + courseColumns + ` FROM courses WHERE created_by = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// SetSubtopicContent stores generated content on a subtopic that has none yet.
// The row is locked for the read-modify-write so concurrent writes to sibling
// subtopics are not lost. If content is already present it is left untouched
// and returned with stored=false.
func (r *CourseRepo) SetSubtopicContent(ctx context.Context, courseID uuid.UUID, subtopicID, content string, videos []models.Video, articles []models.Article) (*models.Subtopic, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	if err := tx.QueryRow(ctx, "SELECT modules_json FROM courses WHERE id = $1 FOR UPDATE", courseID).Scan(&raw); err != nil {
		return nil, false, translateNotFound(err)
	}

	course := models.Course{ID: courseID}
	if err := json.Unmarshal(raw, &course.Modules); err != nil {
		return nil, false, fmt.Errorf("failed to decode modules_json for course %s: %w", courseID, err)
	}

	_, st := course.FindSubtopic(subtopicID)
	if st == nil {
		return nil, false, ErrNotFound
	}
	if st.Content != nil {
		existing := *st
		return &existing, false, nil
	}

	st.Content = &content
	st.Videos = videos
	st.Articles = articles

	if _, err := tx.Exec(ctx,
		"UPDATE courses SET modules_json = $1, updated_at = NOW() WHERE id = $2",
		marshalOr(course.Modules, "[]"), courseID,
	); err != nil {
		return nil, false, fmt.Errorf("failed to store subtopic content: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit subtopic content: %w", err)
	}

	stored := *st
	return &stored, true, nil
}
