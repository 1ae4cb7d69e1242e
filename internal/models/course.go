package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

type Course struct {
	ID                uuid.UUID      `json:"id"`
	Topic             string         `json:"topic"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	ImageURL          string         `json:"image_url"`
	DifficultyLevel   string         `json:"difficulty_level"`
	EstimatedDuration string         `json:"estimated_duration"`
	TargetAudience    string         `json:"target_audience"`
	Modules           []Module       `json:"modules"`
	Glossary          []GlossaryTerm `json:"glossary"`
	Roadmap           []string       `json:"roadmap"`
	Quiz              []QuizQuestion `json:"quiz"`
	Resources         Resources      `json:"resources"`
	CreatedBy         uuid.UUID      `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Module is what the frontends call a chapter.
type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	Objectives  []string   `json:"objectives"`
	Subtopics   []Subtopic `json:"subtopics"`
}

type Subtopic struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       *string   `json:"content"`
	EstimatedTime string    `json:"estimated_time"`
	Videos        []Video   `json:"videos,omitempty"`
	Articles      []Article `json:"articles,omitempty"`
}

type GlossaryTerm struct {
	Term       string  `json:"term"`
	Definition string  `json:"definition"`
	Example    *string `json:"example,omitempty"`
}

type Resources struct {
	Articles []Article `json:"articles"`
	Videos   []Video   `json:"videos"`
}

type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

type Video struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	VideoID      string `json:"video_id"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Channel      string `json:"channel"`
	PublishedAt  string `json:"published_at"`
}

// FindModule returns the module with the given id, or nil.
func (c *Course) FindModule(moduleID string) *Module {
	for i := range c.Modules {
		if c.Modules[i].ID == moduleID {
			return &c.Modules[i]
		}
	}
	return nil
}

// FindSubtopic returns the subtopic and its enclosing module, or nils.
func (c *Course) FindSubtopic(subtopicID string) (*Module, *Subtopic) {
	for i := range c.Modules {
		m := &c.Modules[i]
		for j := range m.Subtopics {
			if m.Subtopics[j].ID == subtopicID {
				return m, &m.Subtopics[j]
			}
		}
	}
	return nil, nil
}

type GenerateCourseRequest struct {
	Topic      string    `json:"topic"`
	Audience   string    `json:"audience"`
	Difficulty string    `json:"difficulty"`
	UserID     uuid.UUID `json:"user_id"`
}

type SubtopicContentResponse struct {
	SubtopicID string    `json:"subtopic_id"`
	Content    string    `json:"content"`
	Cached     bool      `json:"cached"`
	Videos     []Video   `json:"videos,omitempty"`
	Articles   []Article `json:"articles,omitempty"`
}
