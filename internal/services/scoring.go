package services

import "coursenova-backend/internal/models"

// PositionalAnswers maps answers[i] onto questions[i].ID. Null and negative
// entries, and questions past the end of answers, are left unanswered.
func PositionalAnswers(questions []models.QuizQuestion, answers []*int) map[string]int {
	out := make(map[string]int, len(questions))
	for i, q := range questions {
		if i >= len(answers) || answers[i] == nil || *answers[i] < 0 {
			continue
		}
		out[q.ID] = *answers[i]
	}
	return out
}

// ScoreQuiz grades a complete answer set. It is a pure function of its inputs.
// Every question must be answered; otherwise nothing is scored and a
// *MissingAnswersError lists the gaps. An answer outside the option range is
// counted as wrong.
func ScoreQuiz(questions []models.QuizQuestion, answers map[string]int) (models.QuizResult, error) {
	if len(questions) == 0 {
		return models.QuizResult{}, &ValidationError{Fields: map[string]string{"quiz": "Quiz has no questions"}}
	}

	var missing []string
	for _, q := range questions {
		if a, ok := answers[q.ID]; !ok || a < 0 {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return models.QuizResult{}, &MissingAnswersError{QuestionIDs: missing}
	}

	correct := 0
	for _, q := range questions {
		if answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}

	total := len(questions)
	percentage := correct * 100 / total
	return models.QuizResult{
		CorrectCount: correct,
		Total:        total,
		Percentage:   percentage,
		Passed:       percentage >= models.PassingPercentage,
	}, nil
}
