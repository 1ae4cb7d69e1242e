package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizOptionCount is the fixed number of options per multiple-choice question.
const QuizOptionCount = 4

// PassingPercentage is the minimum score that counts as a pass.
const PassingPercentage = 60

type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type Quiz struct {
	ID        uuid.UUID      `json:"id"`
	CourseID  uuid.UUID      `json:"course_id"`
	ChapterID string         `json:"chapter_id"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

type QuizResult struct {
	CorrectCount int  `json:"correct_count"`
	Total        int  `json:"total"`
	Percentage   int  `json:"percentage"`
	Passed       bool `json:"passed"`
}

// SubmitQuizRequest carries answers positionally: Answers[i] answers question i.
// A null or negative entry means the question was left unanswered.
type SubmitQuizRequest struct {
	ChapterID string    `json:"chapter_id"`
	UserID    uuid.UUID `json:"user_id"`
	Answers   []*int    `json:"answers"`
}

type SubmitQuizResponse struct {
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correct_answers"`
	TotalQuestions int  `json:"total_questions"`
	Passed         bool `json:"passed"`
	Recorded       bool `json:"recorded"`
}
