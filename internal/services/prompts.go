package services

import (
	"fmt"
	"strings"

	"coursenova-backend/internal/models"
)

// courseShapeExample is the JSON shape the course decoder expects. Changing it
// changes the schema of every course generated afterwards.
const courseShapeExample = `{
  "title": "Course Title",
  "description": "Brief course description (2-3 sentences)",
  "difficulty_level": "Beginner",
  "estimated_duration": "6 weeks",
  "modules": [
    {
      "title": "Module Title",
      "description": "2-3 sentence summary of what this module covers",
      "duration": "1 week",
      "objectives": ["Objective 1", "Objective 2"],
      "subtopics": [
        {"title": "Subtopic Title", "estimated_time": "20 minutes"}
      ]
    }
  ],
  "glossary": [
    {"term": "Term", "definition": "Plain-language definition", "example": "Optional example"}
  ],
  "roadmap": ["Step 1: ...", "Step 2: ..."],
  "quiz": [
    {
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": 0,
      "explanation": "Why this option is correct"
    }
  ]
}`

func normalizeDifficulty(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "intermediate":
		return models.DifficultyIntermediate
	case "advanced":
		return models.DifficultyAdvanced
	default:
		return models.DifficultyBeginner
	}
}

func BuildCoursePrompt(topic, audience, difficulty string) string {
	var b strings.Builder

	// Layer 1 — Task
	b.WriteString(fmt.Sprintf("Generate a comprehensive course structure for the topic: %q\n\n", strings.TrimSpace(topic)))

	// Layer 2 — Audience and level
	if a := strings.TrimSpace(audience); a != "" {
		b.WriteString(fmt.Sprintf("Target Audience: %s\n", a))
	} else {
		b.WriteString("Target Audience: general learners\n")
	}
	b.WriteString(fmt.Sprintf("Difficulty Level: %s\n\n", normalizeDifficulty(difficulty)))

	// Layer 3 — Shape
	b.WriteString("Respond with a JSON object in exactly this structure:\n")
	b.WriteString(courseShapeExample)
	b.WriteString("\n\n")

	// Layer 4 — Cardinality and rules
	b.WriteString(`Requirements:
- Generate 5-7 modules
- Each module must have 3-4 subtopics
- Include 15-20 glossary terms
- Include 10-15 quiz questions, each with exactly 4 options
- correct_answer is the index (0-3) of the correct option
- difficulty_level is one of "Beginner", "Intermediate", "Advanced"
- Ensure logical progression from basic to advanced concepts
- Make titles engaging and specific

CRITICAL: Return ONLY the JSON object. No preamble, no markdown, no backticks.
`)

	return b.String()
}

func BuildSubtopicPrompt(courseTitle, moduleTitle, subtopicTitle, difficulty string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create detailed lesson content for the subtopic: %q\n", subtopicTitle))
	b.WriteString(fmt.Sprintf("Context: This is part of the course %q", courseTitle))
	if moduleTitle != "" {
		b.WriteString(fmt.Sprintf(" in the module %q", moduleTitle))
	}
	b.WriteString("\n")
	level := normalizeDifficulty(difficulty)
	b.WriteString(fmt.Sprintf("Difficulty Level: %s\n\n", level))

	b.WriteString(`Write a 400-600 word lesson in markdown format including:

1. **Introduction** (what this subtopic is about)
2. **Core Concepts** (step-by-step explanation)
3. **Examples** (practical examples or code snippets if applicable)
4. **Key Takeaways** (bullet points of main concepts)
5. **Common Mistakes** (what students often get wrong)
6. **Summary** (brief recap)

`)
	b.WriteString(fmt.Sprintf("Make it engaging, educational, and appropriate for the %s level.\n", strings.ToLower(level)))
	b.WriteString("Use proper markdown formatting with headers, code blocks, lists, etc.\n")

	return b.String()
}

func BuildChapterQuizPrompt(courseTopic, chapterTitle string, subtopicTitles []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Create a 5-question multiple choice quiz for the chapter: %q\n", chapterTitle))
	b.WriteString(fmt.Sprintf("Course topic: %q\n", courseTopic))
	if len(subtopicTitles) > 0 {
		b.WriteString(fmt.Sprintf("Subtopics covered: %s\n", strings.Join(subtopicTitles, ", ")))
	}

	b.WriteString(`
Respond with a JSON object in exactly this structure:
{
  "questions": [
    {
      "question": "Question text here",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": 0,
      "explanation": "Brief explanation of why this is correct"
    }
  ]
}

Requirements:
- Create exactly 5 multiple choice questions
- Each question must have exactly 4 options
- correct_answer is the index (0-3) of the correct option
- Questions should test understanding, not just memorization
- Cover different subtopics from the chapter

CRITICAL: Return ONLY the JSON object. No preamble, no markdown, no backticks.
`)

	return b.String()
}
