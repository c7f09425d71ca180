package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/revisehq/revise-api/internal/api"
	apimiddleware "github.com/revisehq/revise-api/internal/api/middleware"
)

// setupRouter builds the HTTP routing table over the application's
// services. Everything under /api except the auth endpoints requires a
// Bearer token.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.passwordVerifier)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	jobHandler := api.NewJobHandler(app.jobService)
	reviewHandler := api.NewReviewHandler(app.reviewService)
	studyHandler := api.NewStudyHandler(app.reviewService)
	deckHandler := api.NewDeckHandler(app.deckService)
	quizHandler := api.NewQuizHandler(app.quizService, app.attemptScorer)
	documentHandler := api.NewDocumentHandler(app.documentService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/generation-jobs", jobHandler.SubmitJob)
			r.Get("/generation-jobs/{id}", jobHandler.GetJob)
			r.Post("/generation-jobs/{id}/cancel", jobHandler.CancelJob)
			r.Get("/generation-jobs/{id}/logs", jobHandler.GetJobLogs)

			r.Get("/cards/due", reviewHandler.GetDueCards)
			r.Post("/cards/{id}/review", reviewHandler.SubmitReview)
			r.Get("/study/session", studyHandler.GetSession)

			r.Get("/decks", deckHandler.ListDecks)
			r.Get("/decks/{id}", deckHandler.GetDeck)
			r.Delete("/decks/{id}", deckHandler.DeleteDeck)
			r.Get("/decks/{id}/stats", deckHandler.GetDeckStats)

			r.Get("/quizzes/{id}", quizHandler.GetQuiz)
			r.Post("/quizzes/{id}/attempts", quizHandler.StartAttempt)
			r.Post("/attempts/{id}/answers", quizHandler.SubmitAnswer)
			r.Post("/attempts/{id}/finish", quizHandler.FinishAttempt)

			r.Get("/documents", documentHandler.ListDocuments)
			r.Get("/documents/{id}", documentHandler.GetDocument)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response",
				"error", err)
		}
	})

	return r
}
