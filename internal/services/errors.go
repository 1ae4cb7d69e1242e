package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// GenerationError means the LLM call itself failed: network, auth, timeout,
// or an empty/blocked response.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedOutputError means no balanced JSON object could be found in the
// model output, or the extracted span did not parse.
type MalformedOutputError struct {
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Reason, e.Err)
	}
	return "malformed model output: " + e.Reason
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// InvalidCourseError means the JSON parsed but required course fields are missing.
type InvalidCourseError struct{ Missing []string }

func (e *InvalidCourseError) Error() string {
	return fmt.Sprintf("invalid course structure: missing %v", e.Missing)
}

// MissingAnswersError lists the question ids without a recorded answer.
type MissingAnswersError struct{ QuestionIDs []string }

func (e *MissingAnswersError) Error() string {
	return fmt.Sprintf("%d question(s) unanswered", len(e.QuestionIDs))
}
