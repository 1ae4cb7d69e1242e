package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursenova-backend/internal/database"
	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
)

// testPool connects to TEST_DATABASE_URL and applies the migrations. Tests
// are skipped when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := database.NewPostgresPool(url, database.DefaultPoolSize)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(pool, "../../migrations", logger.Nop()))
	return pool
}

func seedCourse(t *testing.T, repo *CourseRepo, owner uuid.UUID) *models.Course {
	t.Helper()
	c := &models.Course{
		ID:              uuid.New(),
		Topic:           "Go",
		Title:           "Intro to Go",
		DifficultyLevel: models.DifficultyBeginner,
		Modules: []models.Module{
			{ID: uuid.NewString(), Title: "Basics", Subtopics: []models.Subtopic{
				{ID: uuid.NewString(), Title: "Hello"},
				{ID: uuid.NewString(), Title: "Types"},
			}},
		},
		Quiz:      []models.QuizQuestion{},
		Resources: models.Resources{Articles: []models.Article{}, Videos: []models.Video{}},
		CreatedBy: owner,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestCourseRepo_CreateAndGet(t *testing.T) {
	pool := testPool(t)
	repo := NewCourseRepo(pool)
	owner := uuid.New()

	c := seedCourse(t, repo, owner)
	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	require.Len(t, got.Modules, 1)
	assert.Equal(t, c.Modules[0].Subtopics[1].ID, got.Modules[0].Subtopics[1].ID)

	list, err := repo.ListByUser(context.Background(), owner, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseRepo_SetSubtopicContentOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewCourseRepo(pool)
	c := seedCourse(t, repo, uuid.New())
	first := c.Modules[0].Subtopics[0].ID
	second := c.Modules[0].Subtopics[1].ID

	// Sibling subtopics written concurrently must both survive.
	var wg sync.WaitGroup
	for _, id := range []string{first, second} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, stored, err := repo.SetSubtopicContent(context.Background(), c.ID, id, "content for "+id, nil, nil)
			assert.NoError(t, err)
			assert.True(t, stored)
		}(id)
	}
	wg.Wait()

	st, stored, err := repo.SetSubtopicContent(context.Background(), c.ID, first, "replacement", nil, nil)
	require.NoError(t, err)
	assert.False(t, stored)
	require.NotNil(t, st.Content)
	assert.Equal(t, "content for "+first, *st.Content)

	got, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	for _, s := range got.Modules[0].Subtopics {
		require.NotNil(t, s.Content, "subtopic %s lost its content", s.ID)
	}
}

func TestNoteRepo_UpsertKeepsOneRow(t *testing.T) {
	pool := testPool(t)
	courses := NewCourseRepo(pool)
	notes := NewNoteRepo(pool)
	user := uuid.New()
	c := seedCourse(t, courses, user)
	subtopic := c.Modules[0].Subtopics[0].ID

	require.NoError(t, notes.Upsert(context.Background(), &models.Note{UserID: user, CourseID: c.ID, SubtopicID: subtopic, Content: "first"}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, notes.Upsert(context.Background(), &models.Note{UserID: user, CourseID: c.ID, SubtopicID: subtopic, Content: "second"}))

	list, err := notes.List(context.Background(), user, &c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Content)

	all, err := notes.List(context.Background(), user, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBookmarkRepo_CreateIsIdempotent(t *testing.T) {
	pool := testPool(t)
	courses := NewCourseRepo(pool)
	bookmarks := NewBookmarkRepo(pool)
	user := uuid.New()
	c := seedCourse(t, courses, user)
	subtopic := c.Modules[0].Subtopics[0].ID

	first := &models.Bookmark{UserID: user, CourseID: c.ID, SubtopicID: subtopic}
	created, err := bookmarks.Create(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, created)

	again := &models.Bookmark{UserID: user, CourseID: c.ID, SubtopicID: subtopic}
	created, err = bookmarks.Create(context.Background(), again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	list, err := bookmarks.List(context.Background(), user, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEnrollmentRepo_Lifecycle(t *testing.T) {
	pool := testPool(t)
	courses := NewCourseRepo(pool)
	enrollments := NewEnrollmentRepo(pool)
	user := uuid.New()
	c := seedCourse(t, courses, user)
	ctx := context.Background()

	e, created, err := enrollments.Enroll(ctx, user, c.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, e.Progress)
	assert.Nil(t, e.CompletedAt)

	again, created, err := enrollments.Enroll(ctx, user, c.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, e.ID, again.ID)

	ok, err := enrollments.SetQuizScore(ctx, user, c.ID, c.Modules[0].ID, 80)
	require.NoError(t, err)
	assert.True(t, ok)

	now := time.Now().UTC()
	_, err = enrollments.UpdateProgress(ctx, user, c.ID, func(e *models.Enrollment) error {
		e.Progress = 100
		e.CompletedAt = &now
		e.LastAccessed = now
		e.CompletedModules = []string{c.Modules[0].ID}
		return nil
	})
	require.NoError(t, err)

	got, err := enrollments.Get(ctx, user, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 80, got.QuizScores[c.Modules[0].ID], "progress update must not drop quiz scores")

	stats, err := enrollments.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EnrolledCourses)
	assert.Equal(t, 1, stats.CompletedCourses)
	assert.Equal(t, 1, stats.QuizzesPassed)

	dash, err := enrollments.ListDashboard(ctx, user)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	assert.Equal(t, 1, dash[0].ModuleCount)

	ok, err = enrollments.SetQuizScore(ctx, uuid.New(), c.ID, c.Modules[0].ID, 50)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnrollmentRepo_UpdateProgressSerializesWriters(t *testing.T) {
	pool := testPool(t)
	enrollments := NewEnrollmentRepo(pool)
	user := uuid.New()
	c := seedCourse(t, NewCourseRepo(pool), user)
	ctx := context.Background()

	_, _, err := enrollments.Enroll(ctx, user, c.ID)
	require.NoError(t, err)

	// Both writers read-modify-write the module set; neither may be lost.
	modules := []string{"m1", "m2"}
	var wg sync.WaitGroup
	for _, id := range modules {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := enrollments.UpdateProgress(ctx, user, c.ID, func(e *models.Enrollment) error {
				e.CompletedModules = append(e.CompletedModules, id)
				e.Progress = len(e.CompletedModules) * 100 / len(modules)
				return nil
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	got, err := enrollments.Get(ctx, user, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, modules, got.CompletedModules)
	assert.Equal(t, 100, got.Progress)

	sentinel := errors.New("rejected")
	_, err = enrollments.UpdateProgress(ctx, user, c.ID, func(e *models.Enrollment) error {
		e.Progress = 0
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	got, err = enrollments.Get(ctx, user, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress, "rejected update must not be written")

	_, err = enrollments.UpdateProgress(ctx, uuid.New(), c.ID, func(*models.Enrollment) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizRepo_UpsertReplacesChapterQuiz(t *testing.T) {
	pool := testPool(t)
	courses := NewCourseRepo(pool)
	quizzes := NewQuizRepo(pool)
	c := seedCourse(t, courses, uuid.New())
	chapter := c.Modules[0].ID
	ctx := context.Background()

	q1 := &models.Quiz{CourseID: c.ID, ChapterID: chapter, Questions: []models.QuizQuestion{{ID: "a", Question: "old", Options: []string{"1", "2", "3", "4"}}}}
	require.NoError(t, quizzes.Upsert(ctx, q1))
	q2 := &models.Quiz{CourseID: c.ID, ChapterID: chapter, Questions: []models.QuizQuestion{{ID: "b", Question: "new", Options: []string{"1", "2", "3", "4"}}}}
	require.NoError(t, quizzes.Upsert(ctx, q2))

	assert.Equal(t, q1.ID, q2.ID, "one quiz per chapter")
	got, err := quizzes.GetByChapter(ctx, chapter)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "new", got.Questions[0].Question)
}
