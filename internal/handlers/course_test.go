package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"coursenova-backend/internal/models"
	"coursenova-backend/internal/services"
)

func TestCourseHandler_GeneratePersistsOnSuccess(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	repo := newStubCourseRepo()
	gen := &stubGenerator{course: course}
	h := NewCourseHandler(repo, gen, nil, nil, testLogger())

	req := newRequest(t, http.MethodPost, "/api/v1/courses/generate", map[string]string{
		"topic":      "Rust ownership",
		"difficulty": "Beginner",
	}, me, nil)
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if repo.created != 1 {
		t.Fatalf("expected course to be stored once, got %d", repo.created)
	}
	if gen.lastRequest.UserID != me || gen.lastRequest.Topic != "Rust ownership" {
		t.Fatalf("unexpected generator request %+v", gen.lastRequest)
	}
}

func TestCourseHandler_GeneratePublishesCompletion(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	pub := &stubPublisher{}
	h := NewCourseHandler(newStubCourseRepo(), &stubGenerator{course: course}, nil, pub, testLogger())

	rr := httptest.NewRecorder()
	h.Generate(rr, newRequest(t, http.MethodPost, "/api/v1/courses/generate", map[string]string{"topic": "Rust ownership"}, me, nil))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("expected one completion event, got %d", len(pub.sent))
	}
	got := pub.sent[0]
	if got.userID != me || got.msg.Type != "completed" {
		t.Fatalf("unexpected event %+v", got)
	}
	event, ok := got.msg.Payload.(models.CompletedEvent)
	if !ok || event.ResultID != course.ID.String() || event.ResultType != "course" {
		t.Fatalf("unexpected completion payload %+v", got.msg.Payload)
	}
}

func TestCourseHandler_GenerateFailurePublishesNoCompletion(t *testing.T) {
	pub := &stubPublisher{}
	gen := &stubGenerator{courseErr: &services.MalformedOutputError{Reason: "no json"}}
	h := NewCourseHandler(newStubCourseRepo(), gen, nil, pub, testLogger())

	rr := httptest.NewRecorder()
	h.Generate(rr, newRequest(t, http.MethodPost, "/api/v1/courses/generate", map[string]string{"topic": "x"}, uuid.New(), nil))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if len(pub.sent) != 0 {
		t.Fatalf("failed generation must not announce completion, got %+v", pub.sent)
	}
}

func TestCourseHandler_GenerateFailureStoresNothing(t *testing.T) {
	me := uuid.New()
	repo := newStubCourseRepo()
	gen := &stubGenerator{courseErr: &services.InvalidCourseError{Missing: []string{"modules"}}}
	h := NewCourseHandler(repo, gen, nil, nil, testLogger())

	req := newRequest(t, http.MethodPost, "/api/v1/courses/generate", map[string]string{"topic": "x"}, me, nil)
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if code := decodeError(t, rr).Code; code != "INVALID_COURSE_STRUCTURE" {
		t.Fatalf("expected INVALID_COURSE_STRUCTURE, got %q", code)
	}
	if repo.created != 0 {
		t.Fatalf("failed generation must not persist anything")
	}
}

func TestCourseHandler_GenerateRejectsForeignUserID(t *testing.T) {
	repo := newStubCourseRepo()
	gen := &stubGenerator{course: fixtureCourse(uuid.New())}
	h := NewCourseHandler(repo, gen, nil, nil, testLogger())

	req := newRequest(t, http.MethodPost, "/api/v1/courses/generate", map[string]string{
		"topic":   "x",
		"user_id": uuid.New().String(),
	}, uuid.New(), nil)
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestCourseHandler_GetUnknownCourse(t *testing.T) {
	h := NewCourseHandler(newStubCourseRepo(), &stubGenerator{}, nil, nil, testLogger())

	req := newRequest(t, http.MethodGet, "/", nil, uuid.New(), map[string]string{"courseID": uuid.New().String()})
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestCourseHandler_GetStoreFailureIsInternal(t *testing.T) {
	repo := newStubCourseRepo()
	repo.getErr = errors.New("connection reset by peer")
	h := NewCourseHandler(repo, &stubGenerator{}, nil, nil, testLogger())

	req := newRequest(t, http.MethodGet, "/", nil, uuid.New(), map[string]string{"courseID": uuid.New().String()})
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if code := decodeError(t, rr).Code; code != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %q", code)
	}
}

func TestCourseHandler_GetInvalidID(t *testing.T) {
	h := NewCourseHandler(newStubCourseRepo(), &stubGenerator{}, nil, nil, testLogger())

	req := newRequest(t, http.MethodGet, "/", nil, uuid.New(), map[string]string{"courseID": "not-a-uuid"})
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestCourseHandler_SubtopicContentGeneratedOnce(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	repo := newStubCourseRepo(course)
	gen := &stubGenerator{content: "# Move semantics\n\nValues have one owner."}
	locker := &stubLocker{}
	h := NewCourseHandler(repo, gen, locker, nil, testLogger())

	params := map[string]string{"courseID": course.ID.String(), "subtopicID": "m1-s1"}

	for i, wantCached := range []bool{false, true} {
		rr := httptest.NewRecorder()
		h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, params))

		if rr.Code != http.StatusOK {
			t.Fatalf("call %d: expected status %d, got %d (%s)", i, http.StatusOK, rr.Code, rr.Body.String())
		}
		var resp models.SubtopicContentResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Cached != wantCached {
			t.Errorf("call %d: expected cached=%v, got %v", i, wantCached, resp.Cached)
		}
		if resp.Content != gen.content {
			t.Errorf("call %d: unexpected content %q", i, resp.Content)
		}
		if len(resp.Videos) != 1 {
			t.Errorf("call %d: expected enrichment videos to be attached", i)
		}
	}

	if gen.contentCalls != 1 {
		t.Fatalf("expected one LLM call, got %d", gen.contentCalls)
	}
	if len(locker.released) != 1 || locker.released[0] != "subtopic_lock:m1-s1" {
		t.Fatalf("expected lock to be released once, got %v", locker.released)
	}
}

func TestCourseHandler_SubtopicContentLockHeld(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	gen := &stubGenerator{content: "lesson"}
	locker := &stubLocker{held: map[string]bool{"subtopic_lock:m1-s1": true}}
	h := NewCourseHandler(newStubCourseRepo(course), gen, locker, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, map[string]string{
		"courseID": course.ID.String(), "subtopicID": "m1-s1",
	}))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}
	if gen.contentCalls != 0 {
		t.Fatalf("loser of the lock must not call the model")
	}
}

func TestCourseHandler_SubtopicContentStoredWhileWaitingForLock(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	repo := newStubCourseRepo(course)
	gen := &stubGenerator{content: "second lesson"}
	locker := &stubLocker{onAcquire: func(string) {
		_, _, _ = repo.SetSubtopicContent(context.Background(), course.ID, "m1-s1", "first lesson", nil, nil)
	}}
	h := NewCourseHandler(repo, gen, locker, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, map[string]string{
		"courseID": course.ID.String(), "subtopicID": "m1-s1",
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if gen.contentCalls != 0 {
		t.Fatalf("content stored by the previous lock holder must be reused, got %d model calls", gen.contentCalls)
	}
	var resp models.SubtopicContentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Cached || resp.Content != "first lesson" {
		t.Fatalf("expected cached first lesson, got %+v", resp)
	}
	if len(locker.released) != 1 {
		t.Fatalf("expected lock to be released, got %v", locker.released)
	}
}

func TestCourseHandler_SubtopicContentStoreFailureIsInternal(t *testing.T) {
	repo := newStubCourseRepo()
	repo.getErr = errors.New("connection reset by peer")
	gen := &stubGenerator{content: "lesson"}
	h := NewCourseHandler(repo, gen, nil, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, uuid.New(), map[string]string{
		"courseID": uuid.New().String(), "subtopicID": "m1-s1",
	}))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if gen.contentCalls != 0 {
		t.Fatalf("model must not be called when the course cannot be loaded")
	}
}

func TestCourseHandler_SubtopicContentLockErrorProceeds(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	gen := &stubGenerator{content: "lesson"}
	locker := &stubLocker{err: errors.New("redis down")}
	h := NewCourseHandler(newStubCourseRepo(course), gen, locker, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, map[string]string{
		"courseID": course.ID.String(), "subtopicID": "m2-s1",
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestCourseHandler_SubtopicContentFailureLeavesSubtopicEmpty(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	repo := newStubCourseRepo(course)
	gen := &stubGenerator{contentErr: &services.GenerationError{Err: errors.New("quota")}}
	h := NewCourseHandler(repo, gen, nil, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, map[string]string{
		"courseID": course.ID.String(), "subtopicID": "m1-s2",
	}))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if repo.setHits != 0 {
		t.Fatalf("failed generation must not be stored")
	}
	if _, st := course.FindSubtopic("m1-s2"); st.Content != nil {
		t.Fatalf("subtopic content should remain absent")
	}
}

func TestCourseHandler_SubtopicContentUnknownSubtopic(t *testing.T) {
	me := uuid.New()
	course := fixtureCourse(me)
	h := NewCourseHandler(newStubCourseRepo(course), &stubGenerator{}, nil, nil, testLogger())

	rr := httptest.NewRecorder()
	h.SubtopicContent(rr, newRequest(t, http.MethodPost, "/", nil, me, map[string]string{
		"courseID": course.ID.String(), "subtopicID": "nope",
	}))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
