package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/revisehq/revise-api/internal/config"
	"github.com/revisehq/revise-api/internal/domain/srs"
	"github.com/revisehq/revise-api/internal/events"
	"github.com/revisehq/revise-api/internal/generation"
	"github.com/revisehq/revise-api/internal/platform/gemini"
	"github.com/revisehq/revise-api/internal/platform/postgres"
	"github.com/revisehq/revise-api/internal/service"
	"github.com/revisehq/revise-api/internal/service/auth"
	"github.com/revisehq/revise-api/internal/service/quiz"
	"github.com/revisehq/revise-api/internal/service/review"
	"github.com/revisehq/revise-api/internal/store"
	"github.com/revisehq/revise-api/internal/task"
)

// application holds the shared application dependencies so wiring
// happens in one place and shutdown can release them in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore     store.UserStore
	documentStore store.DocumentStore
	deckStore     store.DeckStore
	cardStore     store.CardStore
	scheduleStore store.ScheduleStore
	quizStore     store.QuizStore
	attemptStore  store.AttemptStore
	jobStore      store.JobStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	generator        generation.Generator
	srsService       srs.Service

	userService     service.UserService
	documentService service.DocumentService
	deckService     service.DeckService
	quizService     service.QuizService
	jobService      service.JobService
	reviewService   review.Service
	attemptScorer   quiz.Scorer

	eventEmitter *events.InMemoryEmitter
	taskRunner   *task.TaskRunner
}

// newApplication wires every component together, bottom-up: stores over
// the shared pool, domain services over the stores, then the background
// task runner and the event path that feeds it. The task runner is
// started before return; a non-nil error means nothing is left running.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("initializing JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.documentStore = postgres.NewPostgresDocumentStore(db, logger)
	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.scheduleStore = postgres.NewPostgresScheduleStore(db, logger)
	app.quizStore = postgres.NewPostgresQuizStore(db, logger)
	app.attemptStore = postgres.NewPostgresAttemptStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	app.generator, err = gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("initializing content generator: %w", err)
	}

	app.srsService, err = srs.NewDefaultService()
	if err != nil {
		return nil, fmt.Errorf("initializing SRS service: %w", err)
	}

	// The mastery thresholds used in SQL aggregates come from the same
	// params as the srs predicate, so the two cannot drift.
	params := srs.DefaultParams()
	mastery := store.MasteryThresholds{
		MinRepetitions:  params.MasteryMinRepetitions,
		MinIntervalDays: params.MasteryMinIntervalDays,
	}

	app.userService = service.NewUserService(app.userStore, logger)
	app.documentService = service.NewDocumentService(app.documentStore, logger)
	app.deckService = service.NewDeckService(app.deckStore, app.cardStore, app.scheduleStore, mastery, logger)
	app.quizService = service.NewQuizService(app.quizStore, logger)
	app.reviewService = review.NewService(app.cardStore, app.scheduleStore, app.srsService, logger)
	app.attemptScorer = quiz.NewScorer(app.quizStore, app.attemptStore, logger)

	taskFactory := task.NewGenerationTaskFactory(task.GenerationTaskDeps{
		DB:        db,
		Jobs:      app.jobStore,
		Documents: app.documentStore,
		Decks:     app.deckStore,
		Cards:     app.cardStore,
		Schedules: app.scheduleStore,
		Quizzes:   app.quizStore,
		Generator: app.generator,
		Config:    cfg.Generation,
		Logger:    logger,
	})

	app.taskRunner = task.NewTaskRunner(app.jobStore, taskFactory, task.RunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
		StuckJobAge: time.Duration(cfg.Task.StuckJobAgeMinutes) * time.Minute,
	}, logger)

	app.eventEmitter = events.NewInMemoryEmitter(logger)
	app.eventEmitter.RegisterHandler(
		task.NewGenerationEventHandler(taskFactory, app.taskRunner, logger))

	app.jobService = service.NewJobService(app.jobStore, app.documentStore, app.eventEmitter, logger)

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("starting task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until a shutdown signal arrives, then releases the
// application's resources.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup shuts down background work before closing the database so
// in-flight jobs can still commit.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection",
				slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
