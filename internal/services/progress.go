package services

import (
	"time"

	"coursenova-backend/internal/models"
)

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ApplyProgress sets the enrollment progress, clamped to 0..100. CompletedAt is
// stamped the first time progress reaches 100 and cleared if it drops below.
func ApplyProgress(e *models.Enrollment, progress int, now time.Time) {
	e.Progress = clampProgress(progress)
	if e.Progress == 100 {
		if e.CompletedAt == nil {
			t := now
			e.CompletedAt = &t
		}
	} else {
		e.CompletedAt = nil
	}
	e.LastAccessed = now
}

// ModuleProgress is the share of completed modules as a whole percentage.
func ModuleProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return clampProgress(completed * 100 / total)
}

func appendUnique(list []string, v string) ([]string, bool) {
	for _, s := range list {
		if s == v {
			return list, false
		}
	}
	return append(list, v), true
}

// ApplyProgressUpdate folds a progress request into e. Module and subtopic
// ids must belong to course. When no explicit progress is given and a module
// was completed, progress is derived from the completed module count.
func ApplyProgressUpdate(e *models.Enrollment, req models.UpdateProgressRequest, course *models.Course, now time.Time) error {
	fields := map[string]string{}

	if req.CompletedModuleID != nil && course.FindModule(*req.CompletedModuleID) == nil {
		fields["completed_module_id"] = "Module does not belong to this course"
	}
	if req.CompletedSubtopicID != nil {
		if _, st := course.FindSubtopic(*req.CompletedSubtopicID); st == nil {
			fields["completed_subtopic_id"] = "Subtopic does not belong to this course"
		}
	}
	if req.CurrentModule != nil && (*req.CurrentModule < 0 || *req.CurrentModule >= len(course.Modules)) {
		fields["current_module"] = "Module index out of range"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	moduleAdded := false
	if req.CompletedModuleID != nil {
		e.CompletedModules, moduleAdded = appendUnique(e.CompletedModules, *req.CompletedModuleID)
	}
	if req.CompletedSubtopicID != nil {
		e.CompletedSubtopics, _ = appendUnique(e.CompletedSubtopics, *req.CompletedSubtopicID)
	}
	if req.CurrentModule != nil {
		e.CurrentModule = *req.CurrentModule
	}

	switch {
	case req.Progress != nil:
		ApplyProgress(e, *req.Progress, now)
	case moduleAdded:
		ApplyProgress(e, ModuleProgress(len(e.CompletedModules), len(course.Modules)), now)
	default:
		e.LastAccessed = now
	}
	return nil
}
