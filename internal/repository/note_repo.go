package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

// Upsert keeps one note per (user, subtopic); saving again replaces the content.
func (r *NoteRepo) Upsert(ctx context.Context, n *models.Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	query := `INSERT INTO notes (id, user_id, course_id, subtopic_id, content)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, subtopic_id) DO UPDATE
			SET content = EXCLUDED.content, course_id = EXCLUDED.course_id, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		n.ID, n.UserID, n.CourseID, n.SubtopicID, n.Content,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// List returns the user's notes, optionally limited to one course.
func (r *NoteRepo) List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Note, error) {
	query := `SELECT id, user_id, course_id, subtopic_id, content, created_at, updated_at
		FROM notes
		WHERE user_id = $1 AND ($2::uuid IS NULL OR course_id = $2)
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.CourseID, &n.SubtopicID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
