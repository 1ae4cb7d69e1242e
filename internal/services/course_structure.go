package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"coursenova-backend/internal/models"
)

// flexString accepts a JSON string, number or bool. Models are not consistent
// about quoting durations and times.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		// Objects and arrays are not scalar text; treat as absent.
		*f = ""
		return nil
	}
	*f = flexString(string(data))
	return nil
}

func (f flexString) String() string { return string(f) }

type rawCourse struct {
	Title             flexString    `json:"title"`
	Description       flexString    `json:"description"`
	DifficultyLevel   flexString    `json:"difficulty_level"`
	EstimatedDuration flexString    `json:"estimated_duration"`
	Modules           []rawModule   `json:"modules"`
	Chapters          []rawModule   `json:"chapters"`
	Glossary          []rawGlossary `json:"glossary"`
	Roadmap           []roadmapStep `json:"roadmap"`
	Quiz              []rawQuestion `json:"quiz"`
	Questions         []rawQuestion `json:"questions"`
}

type rawModule struct {
	Title       flexString    `json:"title"`
	Description flexString    `json:"description"`
	Summary     flexString    `json:"summary"`
	Duration    flexString    `json:"duration"`
	Objectives  []flexString  `json:"objectives"`
	Subtopics   []rawSubtopic `json:"subtopics"`
}

type rawSubtopic struct {
	Title         flexString `json:"title"`
	EstimatedTime flexString `json:"estimated_time"`
}

type rawGlossary struct {
	Term       flexString `json:"term"`
	Definition flexString `json:"definition"`
	Example    flexString `json:"example"`
}

type rawQuestion struct {
	Question      flexString      `json:"question"`
	Options       []flexString    `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Explanation   flexString      `json:"explanation"`
}

// roadmapStep accepts either a plain string or an object with a title/step/description.
type roadmapStep string

func (r *roadmapStep) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]flexString
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		for _, key := range []string{"step", "title", "description", "name"} {
			if v := obj[key].String(); v != "" {
				*r = roadmapStep(v)
				return nil
			}
		}
		*r = ""
		return nil
	}
	var f flexString
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*r = roadmapStep(f)
	return nil
}

// decodeCourseStructure turns extracted model JSON into a Course skeleton with
// fresh ids. It returns *InvalidCourseError when title or modules are missing.
func decodeCourseStructure(obj json.RawMessage, req CourseRequest) (*models.Course, error) {
	var rc rawCourse
	if err := json.Unmarshal(obj, &rc); err != nil {
		return nil, &MalformedOutputError{Reason: "course JSON does not match expected shape", Err: err}
	}

	rawModules := rc.Modules
	if len(rawModules) == 0 {
		rawModules = rc.Chapters
	}

	modules := make([]models.Module, 0, len(rawModules))
	for _, rm := range rawModules {
		if rm.Title == "" {
			continue
		}
		modules = append(modules, buildModule(rm))
	}

	var missing []string
	if rc.Title == "" {
		missing = append(missing, "title")
	}
	if len(modules) == 0 {
		missing = append(missing, "modules")
	}
	if len(missing) > 0 {
		return nil, &InvalidCourseError{Missing: missing}
	}

	rawQuiz := rc.Quiz
	if len(rawQuiz) == 0 {
		rawQuiz = rc.Questions
	}

	difficulty := rc.DifficultyLevel.String()
	if difficulty == "" {
		difficulty = req.Difficulty
	}

	course := &models.Course{
		ID:                uuid.New(),
		Topic:             strings.TrimSpace(req.Topic),
		Title:             rc.Title.String(),
		Description:       rc.Description.String(),
		DifficultyLevel:   normalizeDifficulty(difficulty),
		EstimatedDuration: rc.EstimatedDuration.String(),
		TargetAudience:    strings.TrimSpace(req.Audience),
		Modules:           modules,
		Glossary:          buildGlossary(rc.Glossary),
		Roadmap:           buildRoadmap(rc.Roadmap),
		Quiz:              validateQuizQuestions(rawQuiz),
		Resources:         models.Resources{Articles: []models.Article{}, Videos: []models.Video{}},
	}
	return course, nil
}

func buildModule(rm rawModule) models.Module {
	description := rm.Description.String()
	if description == "" {
		description = rm.Summary.String()
	}

	objectives := make([]string, 0, len(rm.Objectives))
	for _, o := range rm.Objectives {
		if o != "" {
			objectives = append(objectives, o.String())
		}
	}

	subtopics := make([]models.Subtopic, 0, len(rm.Subtopics))
	for _, rs := range rm.Subtopics {
		if rs.Title == "" {
			continue
		}
		subtopics = append(subtopics, models.Subtopic{
			ID:            uuid.NewString(),
			Title:         rs.Title.String(),
			EstimatedTime: normalizeMinutes(rs.EstimatedTime.String()),
		})
	}

	return models.Module{
		ID:          uuid.NewString(),
		Title:       rm.Title.String(),
		Description: description,
		Duration:    rm.Duration.String(),
		Objectives:  objectives,
		Subtopics:   subtopics,
	}
}

// normalizeMinutes turns a bare number into "<n> minutes"; text is kept as is.
func normalizeMinutes(s string) string {
	if s == "" {
		return ""
	}
	if _, err := strconv.Atoi(s); err == nil {
		return s + " minutes"
	}
	return s
}

func buildGlossary(raw []rawGlossary) []models.GlossaryTerm {
	terms := make([]models.GlossaryTerm, 0, len(raw))
	for _, g := range raw {
		if g.Term == "" || g.Definition == "" {
			continue
		}
		term := models.GlossaryTerm{Term: g.Term.String(), Definition: g.Definition.String()}
		if g.Example != "" {
			ex := g.Example.String()
			term.Example = &ex
		}
		terms = append(terms, term)
	}
	return terms
}

func buildRoadmap(raw []roadmapStep) []string {
	steps := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			steps = append(steps, string(s))
		}
	}
	return steps
}

// validateQuizQuestions keeps only questions with text, exactly four options
// and a resolvable correct answer. Invalid questions are dropped, not repaired.
func validateQuizQuestions(raw []rawQuestion) []models.QuizQuestion {
	valid := make([]models.QuizQuestion, 0, len(raw))
	for _, q := range raw {
		if q.Question == "" || len(q.Options) != models.QuizOptionCount {
			continue
		}

		options := make([]string, len(q.Options))
		complete := true
		for i, o := range q.Options {
			if o == "" {
				complete = false
				break
			}
			options[i] = o.String()
		}
		if !complete {
			continue
		}

		idx, ok := resolveCorrectAnswer(q.CorrectAnswer, options)
		if !ok {
			continue
		}

		valid = append(valid, models.QuizQuestion{
			ID:            uuid.NewString(),
			Question:      q.Question.String(),
			Options:       options,
			CorrectAnswer: idx,
			Explanation:   q.Explanation.String(),
		})
	}
	return valid
}

// resolveCorrectAnswer accepts a zero-based index (integer, integral float or
// numeric string), a letter (A-D) or the full option text.
func resolveCorrectAnswer(raw json.RawMessage, options []string) (int, bool) {
	var f flexString
	if len(raw) == 0 || f.UnmarshalJSON(raw) != nil || f == "" {
		return 0, false
	}
	s := f.String()

	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && v == math.Trunc(v) {
		n := int(v)
		return n, n >= 0 && n < len(options)
	}

	if len(s) == 1 {
		letter := strings.ToUpper(s)[0]
		if letter >= 'A' && int(letter-'A') < len(options) {
			return int(letter - 'A'), true
		}
	}

	for i, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), s) {
			return i, true
		}
	}
	return 0, false
}
