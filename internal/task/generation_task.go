package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/config"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/generation"
	"github.com/revisehq/revise-api/internal/store"
	"github.com/revisehq/revise-api/internal/validation"
)

// TaskTypeGeneration identifies generation-job tasks and the events
// that request them.
const TaskTypeGeneration = "generation_job"

// progress checkpoints. The batch loop scales between them; Complete
// sets 100 on commit.
const (
	progressLoaded    = 10
	progressGenerated = 90
)

// GenerationTaskDeps bundles everything a generation task needs. The
// factory holds one instance and stamps it into every task it creates.
type GenerationTaskDeps struct {
	DB        *sql.DB
	Jobs      store.JobStore
	Documents store.DocumentStore
	Decks     store.DeckStore
	Cards     store.CardStore
	Schedules store.ScheduleStore
	Quizzes   store.QuizStore
	Generator generation.Generator
	Config    config.GenerationConfig
	Logger    *slog.Logger
}

// GenerationTask drives one generation job from claim to its committed
// deck or quiz: load the source document, call the generator in
// batches, push every candidate through the validation gate, and
// commit the survivors atomically together with the job's completion.
type GenerationTask struct {
	jobID uuid.UUID
	deps  GenerationTaskDeps
}

var _ Task = (*GenerationTask)(nil)

// NewGenerationTask creates a task for the given job.
func NewGenerationTask(jobID uuid.UUID, deps GenerationTaskDeps) *GenerationTask {
	return &GenerationTask{jobID: jobID, deps: deps}
}

// ID returns the job ID this task executes.
func (t *GenerationTask) ID() uuid.UUID { return t.jobID }

// Type returns TaskTypeGeneration.
func (t *GenerationTask) Type() string { return TaskTypeGeneration }

// Execute runs the job. Domain failures (unusable document, not enough
// validated items, generator errors) are recorded on the job row via
// Fail and also returned for runner logging. A nil return means either
// the job completed or there was legitimately nothing to do: a lost
// claim and a mid-run cancellation both end the task without error.
func (t *GenerationTask) Execute(ctx context.Context) error {
	log := t.deps.Logger.With(
		slog.String("component", "generation_task"),
		slog.String("job_id", t.jobID.String()))

	claimed, err := t.deps.Jobs.Claim(ctx, t.jobID)
	if err != nil {
		return fmt.Errorf("claiming job %s: %w", t.jobID, err)
	}
	if !claimed {
		// Another worker got here first, or the job was cancelled or
		// already finished. Nothing to do.
		log.Debug("job not claimable, skipping")
		return nil
	}

	job, err := t.deps.Jobs.GetByID(ctx, t.jobID)
	if err != nil {
		return t.failJob(ctx, log, "internal error loading job", err)
	}
	log = log.With(slog.String("kind", string(job.Kind)))

	doc, chunks, err := t.loadSource(ctx, log, job)
	if err != nil {
		return err
	}
	t.appendLog(ctx, log, domain.JobLogLevelInfo, "generation started", map[string]any{
		"document_id": job.DocumentID,
		"item_count":  job.ItemCount,
		"chunk_count": len(chunks),
	})
	if err := t.updateProgress(ctx, log, progressLoaded); errors.Is(err, errJobGone) {
		log.Info("job no longer processing, abandoning work")
		return nil
	}

	outcome, err := t.generate(ctx, log, job, chunks)
	if err != nil {
		return err
	}
	if outcome == nil {
		// Cancellation was observed between batches. The work is
		// discarded; the job row already reflects its final status.
		return nil
	}

	accepted := outcome.size()
	if accepted < t.deps.Config.MinAcceptedItems {
		msg := fmt.Sprintf("only %d of %d generated items could be verified against the document", accepted, job.ItemCount)
		t.appendLog(ctx, log, domain.JobLogLevelError, msg, map[string]any{
			"accepted": accepted,
			"rejected": outcome.rejected,
			"minimum":  t.deps.Config.MinAcceptedItems,
		})
		return t.failJob(ctx, log, msg, nil)
	}

	resultID, err := t.commit(ctx, job, doc, outcome)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			// The job stopped being processing mid-transaction, almost
			// certainly a user cancellation. Everything rolled back.
			log.Info("job cancelled before commit, results discarded")
			return nil
		}
		return t.failJob(ctx, log, "internal error saving generated content", err)
	}

	t.appendLog(ctx, log, domain.JobLogLevelInfo, "generation completed", map[string]any{
		"result_id": resultID,
		"accepted":  accepted,
		"rejected":  outcome.rejected,
	})
	log.Info("generation job finished",
		slog.String("result_id", resultID.String()),
		slog.Int("accepted", accepted),
		slog.Int("rejected", outcome.rejected))
	return nil
}

// loadSource fetches the document and its chunks, failing the job when
// the document cannot back a generation run.
func (t *GenerationTask) loadSource(ctx context.Context, log *slog.Logger, job *domain.GenerationJob) (*domain.Document, []*domain.Chunk, error) {
	doc, err := t.deps.Documents.GetByID(ctx, job.DocumentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, t.failJob(ctx, log, "source document no longer exists", err)
		}
		return nil, nil, t.failJob(ctx, log, "internal error loading source document", err)
	}
	if !doc.IsProcessed() {
		msg := fmt.Sprintf("document is not ready for generation (status %s)", doc.Status)
		return nil, nil, t.failJob(ctx, log, msg, nil)
	}

	chunks, err := t.deps.Documents.GetChunks(ctx, job.DocumentID)
	if err != nil {
		return nil, nil, t.failJob(ctx, log, "internal error loading document content", err)
	}
	if len(chunks) == 0 {
		return nil, nil, t.failJob(ctx, log, "document has no extractable content", nil)
	}
	return doc, chunks, nil
}

// generateOutcome accumulates validated candidates across batches.
type generateOutcome struct {
	title       string
	description string
	cards       []generation.CandidateCard
	questions   []generation.CandidateQuestion
	rejected    int
}

func (o *generateOutcome) size() int {
	return len(o.cards) + len(o.questions)
}

// generate runs the batch loop: ask the generator for the remaining
// count, validate each candidate against the source chunks, and repeat
// until the target is met, the model runs dry, or the batch budget is
// spent. A nil outcome with nil error means the job was cancelled.
func (t *GenerationTask) generate(ctx context.Context, log *slog.Logger, job *domain.GenerationJob, chunks []*domain.Chunk) (*generateOutcome, error) {
	gate := validation.NewValidator(chunks, validation.TokenOverlap(t.deps.Config.GroundingThreshold))
	outcome := &generateOutcome{}
	var exclude []string

	for batch := 1; batch <= t.deps.Config.MaxBatches && outcome.size() < job.ItemCount; batch++ {
		req := generation.Request{
			Kind:        job.Kind,
			Count:       job.ItemCount - outcome.size(),
			ItemTypes:   job.ItemTypes,
			Difficulty:  job.Difficulty,
			FocusTopics: job.FocusTopics,
			Chunks:      chunks,
			Exclude:     exclude,
		}

		result, err := t.deps.Generator.Generate(ctx, req)
		if err != nil {
			// The generator retries transient errors internally, so
			// whatever reaches here is final for this job.
			t.appendLog(ctx, log, domain.JobLogLevelError, "generator call failed", map[string]any{
				"batch": batch,
				"error": err.Error(),
			})
			return nil, t.failJob(ctx, log, failureMessage(err), err)
		}

		if outcome.title == "" && result.Title != "" {
			outcome.title = result.Title
			outcome.description = result.Description
		}
		if result.Size() == 0 {
			t.appendLog(ctx, log, domain.JobLogLevelWarn, "generator returned no candidates, stopping early", map[string]any{
				"batch": batch,
			})
			break
		}

		for _, c := range result.Cards {
			res := gate.CheckCard(c)
			if !res.Accepted {
				outcome.rejected++
				t.logRejection(ctx, log, res, c.Front)
				continue
			}
			outcome.cards = append(outcome.cards, c)
			exclude = append(exclude, c.Front)
		}
		for _, q := range result.Questions {
			res := gate.CheckQuestion(q)
			if !res.Accepted {
				outcome.rejected++
				t.logRejection(ctx, log, res, q.Prompt)
				continue
			}
			outcome.questions = append(outcome.questions, q)
			exclude = append(exclude, q.Prompt)
		}

		progress := progressLoaded
		if job.ItemCount > 0 {
			progress += (progressGenerated - progressLoaded) * outcome.size() / job.ItemCount
		}
		if err := t.updateProgress(ctx, log, progress); errors.Is(err, errJobGone) {
			log.Info("job no longer processing, abandoning work")
			return nil, nil
		}
	}
	return outcome, nil
}

// commit writes the validated items and the job's completion in one
// transaction, so a completed job always has its result and a crashed
// commit leaves the job re-runnable.
func (t *GenerationTask) commit(ctx context.Context, job *domain.GenerationJob, doc *domain.Document, outcome *generateOutcome) (uuid.UUID, error) {
	title := outcome.title
	description := outcome.description

	var resultID uuid.UUID
	err := store.RunInTransaction(ctx, t.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		switch job.Kind {
		case domain.JobKindDeck:
			resultID, err = t.commitDeck(ctx, tx, job, doc, outcome, title, description)
		case domain.JobKindQuiz:
			resultID, err = t.commitQuiz(ctx, tx, job, doc, outcome, title, description)
		default:
			return fmt.Errorf("unsupported job kind %q", job.Kind)
		}
		if err != nil {
			return err
		}
		return t.deps.Jobs.WithTx(tx).Complete(ctx, job.ID, resultID)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return resultID, nil
}

func (t *GenerationTask) commitDeck(ctx context.Context, tx *sql.Tx, job *domain.GenerationJob, doc *domain.Document, outcome *generateOutcome, title, description string) (uuid.UUID, error) {
	if title == "" {
		title = fmt.Sprintf("Flashcards: %s", doc.Title)
	}
	deck, err := domain.NewGeneratedDeck(job.UserID, job.DocumentID, job.ID, title, description)
	if err != nil {
		return uuid.Nil, fmt.Errorf("building deck: %w", err)
	}
	if err := t.deps.Decks.WithTx(tx).Create(ctx, deck); err != nil {
		return uuid.Nil, fmt.Errorf("creating deck: %w", err)
	}

	now := time.Now().UTC()
	cards := make([]*domain.Card, 0, len(outcome.cards))
	schedules := make([]*domain.CardSchedule, 0, len(outcome.cards))
	for _, cand := range outcome.cards {
		card := &domain.Card{
			ID:            uuid.New(),
			DeckID:        deck.ID,
			UserID:        job.UserID,
			Type:          cand.Type,
			Front:         cand.Front,
			Back:          cand.Back,
			ClozeAnswer:   cand.ClozeAnswer,
			Difficulty:    job.Difficulty,
			SourcePage:    cand.SourcePage,
			SourceSnippet: cand.SourceSnippet,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := card.Validate(); err != nil {
			return uuid.Nil, fmt.Errorf("building card: %w", err)
		}
		cards = append(cards, card)

		schedule, err := domain.NewCardSchedule(job.UserID, card.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("building schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := t.deps.Cards.WithTx(tx).CreateMultiple(ctx, cards); err != nil {
		return uuid.Nil, fmt.Errorf("creating cards: %w", err)
	}
	if err := t.deps.Schedules.WithTx(tx).CreateMultiple(ctx, schedules); err != nil {
		return uuid.Nil, fmt.Errorf("creating schedules: %w", err)
	}
	return deck.ID, nil
}

func (t *GenerationTask) commitQuiz(ctx context.Context, tx *sql.Tx, job *domain.GenerationJob, doc *domain.Document, outcome *generateOutcome, title, description string) (uuid.UUID, error) {
	if title == "" {
		title = fmt.Sprintf("Quiz: %s", doc.Title)
	}
	quiz, err := domain.NewGeneratedQuiz(job.UserID, job.DocumentID, job.ID, title, description)
	if err != nil {
		return uuid.Nil, fmt.Errorf("building quiz: %w", err)
	}

	quizzes := t.deps.Quizzes.WithTx(tx)
	if err := quizzes.Create(ctx, quiz); err != nil {
		return uuid.Nil, fmt.Errorf("creating quiz: %w", err)
	}

	now := time.Now().UTC()
	questions := make([]*domain.Question, 0, len(outcome.questions))
	for i, cand := range outcome.questions {
		question := &domain.Question{
			ID:            uuid.New(),
			QuizID:        quiz.ID,
			Type:          cand.Type,
			Prompt:        cand.Prompt,
			Options:       cand.Options,
			CorrectAnswer: cand.CorrectAnswer,
			Explanation:   cand.Explanation,
			Position:      i,
			SourcePage:    cand.SourcePage,
			SourceSnippet: cand.SourceSnippet,
			CreatedAt:     now,
		}
		if err := question.Validate(); err != nil {
			return uuid.Nil, fmt.Errorf("building question: %w", err)
		}
		questions = append(questions, question)
	}

	if err := quizzes.CreateQuestions(ctx, questions); err != nil {
		return uuid.Nil, fmt.Errorf("creating questions: %w", err)
	}
	return quiz.ID, nil
}

// errJobGone reports that a progress update matched no processing row,
// meaning the job was cancelled (or otherwise finalized) under us.
var errJobGone = errors.New("job no longer processing")

// updateProgress records progress best-effort. Only the job having
// left the processing state is surfaced, as errJobGone; other errors
// are logged and swallowed since progress is advisory.
func (t *GenerationTask) updateProgress(ctx context.Context, log *slog.Logger, progress int) error {
	err := t.deps.Jobs.UpdateProgress(ctx, t.jobID, progress)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrJobNotFound) {
		return errJobGone
	}
	log.Warn("failed to update job progress",
		slog.Int("progress", progress),
		slog.String("error", err.Error()))
	return nil
}

// failJob marks the job failed with a user-facing message. The
// returned error (for runner logging) wraps the cause when present.
func (t *GenerationTask) failJob(ctx context.Context, log *slog.Logger, message string, cause error) error {
	if err := t.deps.Jobs.Fail(ctx, t.jobID, message); err != nil {
		// Either the DB is unhealthy or the job was cancelled first.
		// Log and fall through; the job row stays whatever it is.
		log.Error("failed to mark job failed",
			slog.String("message", message),
			slog.String("error", err.Error()))
	}
	log.Warn("generation job failed", slog.String("message", message))

	if cause != nil {
		return fmt.Errorf("job %s failed: %s: %w", t.jobID, message, cause)
	}
	return fmt.Errorf("job %s failed: %s", t.jobID, message)
}

// logRejection appends a structured audit entry for a rejected
// candidate so users can see why their requested count fell short.
func (t *GenerationTask) logRejection(ctx context.Context, log *slog.Logger, res validation.Result, item string) {
	details := map[string]any{
		"reason": string(res.Reason),
		"item":   truncate(item, 120),
	}
	if res.Detail != "" {
		details["detail"] = res.Detail
	}
	if res.Snippet != "" {
		details["snippet"] = truncate(res.Snippet, 200)
	}
	t.appendLog(ctx, log, domain.JobLogLevelWarn, "candidate rejected", details)
}

// appendLog writes a job audit entry. Audit failures never fail the
// job; they are logged and dropped.
func (t *GenerationTask) appendLog(ctx context.Context, log *slog.Logger, level domain.JobLogLevel, message string, details map[string]any) {
	var raw json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			log.Warn("failed to marshal job log details", slog.String("error", err.Error()))
		} else {
			raw = b
		}
	}

	entry, err := domain.NewJobLogEntry(t.jobID, level, message, raw)
	if err != nil {
		log.Warn("failed to build job log entry", slog.String("error", err.Error()))
		return
	}
	if err := t.deps.Jobs.AppendLog(ctx, entry); err != nil {
		log.Warn("failed to append job log entry", slog.String("error", err.Error()))
	}
}

// failureMessage maps generator errors to the user-facing message
// stored on the failed job.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, generation.ErrContentBlocked):
		return "generation was blocked by content safety filters"
	case errors.Is(err, generation.ErrTransientFailure):
		return "the generation service is temporarily unavailable, try again later"
	case errors.Is(err, generation.ErrInvalidResponse):
		return "the model returned an unusable response"
	default:
		return "content generation failed"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
