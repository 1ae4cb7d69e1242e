package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"coursenova-backend/internal/handlers"
	"coursenova-backend/internal/middleware"
	"coursenova-backend/internal/websocket"
)

type Handlers struct {
	Course     *handlers.CourseHandler
	Quiz       *handlers.QuizHandler
	Enrollment *handlers.EnrollmentHandler
	Note       *handlers.NoteHandler
	Dashboard  *handlers.DashboardHandler
}

func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	generateLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", handlers.Root)

		// ──── WebSocket (token in query string) ────
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Get("/me", h.Dashboard.Me)
			r.Get("/dashboard", h.Dashboard.Dashboard)

			// ──── Course Routes ────
			r.Route("/courses", func(r chi.Router) {
				r.With(generateLimiter.Middleware).Post("/generate", h.Course.Generate)
				r.Get("/", h.Course.List)
				r.Route("/{courseID}", func(r chi.Router) {
					r.Get("/", h.Course.Get)
					r.Post("/subtopics/{subtopicID}/content", h.Course.SubtopicContent)

					r.Post("/chapters/{chapterID}/quiz", h.Quiz.Generate)
					r.Get("/chapters/{chapterID}/quiz", h.Quiz.Get)

					r.Post("/enroll", h.Enrollment.Enroll)
					r.Get("/enrollment", h.Enrollment.Get)
					r.Put("/progress", h.Enrollment.UpdateProgress)
				})
			})

			r.Post("/quiz/submit", h.Quiz.Submit)

			// ──── Notes & Bookmarks ────
			r.Route("/notes", func(r chi.Router) {
				r.Post("/", h.Note.SaveNote)
				r.Get("/", h.Note.ListNotes)
			})
			r.Route("/bookmarks", func(r chi.Router) {
				r.Post("/", h.Note.CreateBookmark)
				r.Get("/", h.Note.ListBookmarks)
			})
		})
	})

	return r
}
