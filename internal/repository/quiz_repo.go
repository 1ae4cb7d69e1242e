package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

// Upsert stores the quiz for its chapter, replacing any earlier one.
func (r *QuizRepo) Upsert(ctx context.Context, q *models.Quiz) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	query := `INSERT INTO quizzes (id, course_id, chapter_id, questions_json)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chapter_id) DO UPDATE
			SET questions_json = EXCLUDED.questions_json, created_at = NOW()
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.CourseID, q.ChapterID, marshalOr(q.Questions, "[]"),
	).Scan(&q.ID, &q.CreatedAt)
}

func (r *QuizRepo) GetByChapter(ctx context.Context, chapterID string) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions []byte

	query := `SELECT id, course_id, chapter_id, questions_json, created_at FROM quizzes WHERE chapter_id = $1`
	err := r.pool.QueryRow(ctx, query, chapterID).Scan(&q.ID, &q.CourseID, &q.ChapterID, &questions, &q.CreatedAt)
	if err != nil {
		return nil, translateNotFound(err)
	}

	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", q.ID, err)
	}
	return q, nil
}
