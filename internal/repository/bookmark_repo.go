package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type BookmarkRepo struct {
	pool *pgxpool.Pool
}

func NewBookmarkRepo(pool *pgxpool.Pool) *BookmarkRepo {
	return &BookmarkRepo{pool: pool}
}

// Create bookmarks a subtopic. Bookmarking it again returns the original row
// with created=false.
func (r *BookmarkRepo) Create(ctx context.Context, b *models.Bookmark) (bool, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	query := `INSERT INTO bookmarks (id, user_id, course_id, subtopic_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, subtopic_id) DO NOTHING
		RETURNING created_at`

	err := translateNotFound(r.pool.QueryRow(ctx, query, b.ID, b.UserID, b.CourseID, b.SubtopicID).Scan(&b.CreatedAt))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT id, course_id, created_at FROM bookmarks WHERE user_id = $1 AND subtopic_id = $2`,
		b.UserID, b.SubtopicID,
	).Scan(&b.ID, &b.CourseID, &b.CreatedAt)
	return false, translateNotFound(err)
}

// List returns the user's bookmarks, optionally limited to one course.
func (r *BookmarkRepo) List(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID) ([]models.Bookmark, error) {
	query := `SELECT id, user_id, course_id, subtopic_id, created_at
		FROM bookmarks
		WHERE user_id = $1 AND ($2::uuid IS NULL OR course_id = $2)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourseID, &b.SubtopicID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
