package quiz

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// fakeQuizStore serves fixed quizzes and questions.
type fakeQuizStore struct {
	quizzes   map[uuid.UUID]*domain.Quiz
	questions map[uuid.UUID]*domain.Question
	byQuiz    map[uuid.UUID][]*domain.Question

	getQuizErr      error
	getQuestionsErr error
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{
		quizzes:   make(map[uuid.UUID]*domain.Quiz),
		questions: make(map[uuid.UUID]*domain.Question),
		byQuiz:    make(map[uuid.UUID][]*domain.Question),
	}
}

func (f *fakeQuizStore) add(quiz *domain.Quiz, questions ...*domain.Question) {
	f.quizzes[quiz.ID] = quiz
	for _, q := range questions {
		f.questions[q.ID] = q
		f.byQuiz[quiz.ID] = append(f.byQuiz[quiz.ID], q)
	}
}

func (f *fakeQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error { return nil }

func (f *fakeQuizStore) CreateQuestions(ctx context.Context, questions []*domain.Question) error {
	return nil
}

func (f *fakeQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	if f.getQuizErr != nil {
		return nil, f.getQuizErr
	}
	quiz, ok := f.quizzes[id]
	if !ok {
		return nil, store.ErrQuizNotFound
	}
	return quiz, nil
}

func (f *fakeQuizStore) GetQuestions(ctx context.Context, quizID uuid.UUID) ([]*domain.Question, error) {
	if f.getQuestionsErr != nil {
		return nil, f.getQuestionsErr
	}
	return f.byQuiz[quizID], nil
}

func (f *fakeQuizStore) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	question, ok := f.questions[id]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}
	return question, nil
}

func (f *fakeQuizStore) WithTx(tx *sql.Tx) store.QuizStore { return f }

// fakeAttemptStore is an in-memory store.AttemptStore enforcing the
// one-answer-per-question constraint and the conditional finish.
type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*domain.QuizAttempt
	answers  map[uuid.UUID][]*domain.AttemptAnswer

	createErr error
	finishErr error
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: make(map[uuid.UUID]*domain.QuizAttempt),
		answers:  make(map[uuid.UUID][]*domain.AttemptAnswer),
	}
}

func (f *fakeAttemptStore) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *attempt
	f.attempts[attempt.ID] = &copied
	return nil
}

func (f *fakeAttemptStore) GetAttempt(ctx context.Context, id uuid.UUID) (*domain.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok {
		return nil, store.ErrAttemptNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (f *fakeAttemptStore) FinishAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finishErr != nil {
		return f.finishErr
	}
	current, ok := f.attempts[attempt.ID]
	if !ok {
		return store.ErrAttemptNotFound
	}
	if current.CompletedAt != nil {
		return store.ErrConcurrentUpdate
	}
	copied := *attempt
	f.attempts[attempt.ID] = &copied
	return nil
}

func (f *fakeAttemptStore) CreateAnswer(ctx context.Context, answer *domain.AttemptAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.answers[answer.AttemptID] {
		if existing.QuestionID == answer.QuestionID {
			return store.ErrAnswerExists
		}
	}
	copied := *answer
	f.answers[answer.AttemptID] = append(f.answers[answer.AttemptID], &copied)
	return nil
}

func (f *fakeAttemptStore) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]*domain.AttemptAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[attemptID], nil
}

func (f *fakeAttemptStore) CountAnswers(ctx context.Context, attemptID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers[attemptID]), nil
}

func (f *fakeAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore { return f }
