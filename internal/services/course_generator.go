package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
)

const (
	maxTopicLength    = 200
	maxAudienceLength = 200
	generationSteps   = 3
	rawPreviewLength  = 500
)

type CourseRequest struct {
	Topic      string
	Audience   string
	Difficulty string
	UserID     uuid.UUID
}

// CourseEnricher is satisfied by *Enricher.
type CourseEnricher interface {
	Enrich(ctx context.Context, topic string) Enrichment
	EnrichResources(ctx context.Context, query string) Enrichment
}

type CourseGenerator struct {
	llm      TextGenerator
	enricher CourseEnricher
	notifier StatusPublisher
	model    string
	log      *logger.Logger
}

// NewCourseGenerator wires the generator. notifier may be nil.
func NewCourseGenerator(llm TextGenerator, enricher CourseEnricher, notifier StatusPublisher, model string, log *logger.Logger) *CourseGenerator {
	return &CourseGenerator{
		llm:      llm,
		enricher: enricher,
		notifier: notifier,
		model:    model,
		log:      log,
	}
}

func (req CourseRequest) validate() error {
	fields := map[string]string{}
	topic := strings.TrimSpace(req.Topic)
	switch {
	case topic == "":
		fields["topic"] = "Topic is required"
	case utf8.RuneCountInString(topic) > maxTopicLength:
		fields["topic"] = "Topic must be 200 characters or fewer"
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Audience)) > maxAudienceLength {
		fields["audience"] = "Audience must be 200 characters or fewer"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// GenerateCourse asks the model for a course structure, validates it and attaches
// best-effort resources. Nothing is persisted here; a failed generation leaves
// no trace for the caller to clean up.
func (g *CourseGenerator) GenerateCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(req.Topic)

	g.publishStep(ctx, req.UserID, topic, 1, "Designing course structure")

	raw, err := g.generate(ctx, BuildCoursePrompt(topic, req.Audience, req.Difficulty))
	if err != nil {
		g.publishError(ctx, req.UserID, topic, "GENERATION_FAILED", "Course generation failed")
		return nil, err
	}

	obj, err := ExtractJSONObject(raw)
	if err != nil {
		g.log.Error("Course output had no usable JSON", "topic", topic, "raw_preview", preview(raw), "error", err)
		g.publishError(ctx, req.UserID, topic, "MALFORMED_MODEL_OUTPUT", "The model returned an unreadable course")
		return nil, err
	}

	course, err := decodeCourseStructure(obj, req)
	if err != nil {
		g.log.Error("Course output failed validation", "topic", topic, "raw_preview", preview(raw), "error", err)
		g.publishError(ctx, req.UserID, topic, "INVALID_COURSE_STRUCTURE", "The model returned an incomplete course")
		return nil, err
	}
	course.CreatedBy = req.UserID

	g.publishStep(ctx, req.UserID, topic, 2, "Gathering learning resources")

	enrichment := g.enricher.Enrich(ctx, topic)
	course.Resources = models.Resources{Articles: enrichment.Articles, Videos: enrichment.Videos}
	course.ImageURL = enrichment.ImageURL

	g.publishStep(ctx, req.UserID, topic, 3, "Finalizing course")

	g.log.Info("Course generated",
		"topic", topic,
		"course_id", course.ID.String(),
		"modules", len(course.Modules),
		"quiz_questions", len(course.Quiz),
		"degraded", enrichment.Degraded,
	)
	return course, nil
}

// GenerateSubtopicContent returns markdown lesson content for one subtopic.
func (g *CourseGenerator) GenerateSubtopicContent(ctx context.Context, courseTitle, moduleTitle, subtopicTitle, difficulty string) (string, error) {
	if strings.TrimSpace(subtopicTitle) == "" {
		return "", &ValidationError{Fields: map[string]string{"subtopic": "Subtopic title is required"}}
	}

	text, err := g.generate(ctx, BuildSubtopicPrompt(courseTitle, moduleTitle, subtopicTitle, difficulty))
	if err != nil {
		return "", err
	}
	return unwrapMarkdownFence(text), nil
}

// EnrichSubtopic finds videos and articles scoped to a subtopic of course.
func (g *CourseGenerator) EnrichSubtopic(ctx context.Context, course *models.Course, subtopicTitle string) Enrichment {
	return g.enricher.EnrichResources(ctx, strings.TrimSpace(subtopicTitle+" "+course.Topic))
}

// GenerateChapterQuiz builds a short quiz for one module.
func (g *CourseGenerator) GenerateChapterQuiz(ctx context.Context, course *models.Course, chapterID string) (*models.Quiz, error) {
	chapter := course.FindModule(chapterID)
	if chapter == nil {
		return nil, &NotFoundError{Message: "Chapter not found"}
	}

	titles := make([]string, 0, len(chapter.Subtopics))
	for _, st := range chapter.Subtopics {
		titles = append(titles, st.Title)
	}

	raw, err := g.generate(ctx, BuildChapterQuizPrompt(course.Topic, chapter.Title, titles))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []rawQuestion `json:"questions"`
		Quiz      []rawQuestion `json:"quiz"`
	}
	if err := DecodeModelJSON(raw, &payload); err != nil {
		g.log.Error("Chapter quiz output had no usable JSON", "chapter_id", chapterID, "raw_preview", preview(raw), "error", err)
		return nil, err
	}
	rawQuestions := payload.Questions
	if len(rawQuestions) == 0 {
		rawQuestions = payload.Quiz
	}

	questions := validateQuizQuestions(rawQuestions)
	if len(questions) == 0 {
		return nil, &MalformedOutputError{Reason: "no valid quiz questions"}
	}
	if dropped := len(rawQuestions) - len(questions); dropped > 0 {
		g.log.Warn("Dropped invalid quiz questions", "chapter_id", chapterID, "dropped", dropped)
	}

	return &models.Quiz{
		ID:        uuid.New(),
		CourseID:  course.ID,
		ChapterID: chapterID,
		Questions: questions,
	}, nil
}

func (g *CourseGenerator) generate(ctx context.Context, prompt string) (string, error) {
	text, err := g.llm.Generate(ctx, prompt, g.model)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &GenerationError{Err: err}
	}
	return text, nil
}

func (g *CourseGenerator) publishStep(ctx context.Context, userID uuid.UUID, topic string, step int, name string) {
	if g.notifier == nil || userID == uuid.Nil {
		return
	}
	g.notifier.PublishUpdate(ctx, userID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			Topic:    topic,
			Step:     step,
			StepName: name,
			Total:    generationSteps,
		},
	})
}

func (g *CourseGenerator) publishError(ctx context.Context, userID uuid.UUID, topic, code, message string) {
	if g.notifier == nil || userID == uuid.Nil {
		return
	}
	g.notifier.PublishUpdate(ctx, userID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			Topic:        topic,
			ErrorCode:    code,
			ErrorMessage: message,
		},
	})
}

// unwrapMarkdownFence removes a single ```markdown fence wrapped around the whole
// lesson. Code blocks inside the lesson are left alone.
func unwrapMarkdownFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return t
	}
	lang := strings.ToLower(strings.TrimSpace(t[3:nl]))
	if lang != "" && lang != "markdown" && lang != "md" {
		return t
	}
	return strings.TrimSpace(t[nl+1 : len(t)-3])
}

func preview(raw string) string {
	if len(raw) <= rawPreviewLength {
		return raw
	}
	return raw[:rawPreviewLength] + "..."
}
