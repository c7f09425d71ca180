package generation

import (
	"context"

	"github.com/revisehq/revise-api/internal/domain"
)

// Request describes one batch of items to generate. The worker may issue
// several requests per job; Exclude carries the fronts and prompts
// already accepted so the model does not repeat itself across batches.
type Request struct {
	Kind        domain.JobKind
	Count       int
	ItemTypes   []string
	Difficulty  domain.Difficulty
	FocusTopics []string
	Chunks      []*domain.Chunk
	Exclude     []string
}

// CandidateCard is a model-proposed flashcard. It cites the snippet it
// was generated from; the validation gate checks that citation against
// the document before the card is accepted.
type CandidateCard struct {
	Type          domain.CardType `json:"type"`
	Front         string          `json:"front"`
	Back          string          `json:"back"`
	ClozeAnswer   string          `json:"cloze_answer,omitempty"`
	SourcePage    *int            `json:"source_page,omitempty"`
	SourceSnippet string          `json:"source_snippet"`
}

// CandidateQuestion is a model-proposed quiz question with the same
// citation contract as CandidateCard.
type CandidateQuestion struct {
	Type          domain.QuestionType     `json:"type"`
	Prompt        string                  `json:"prompt"`
	Options       []domain.QuestionOption `json:"options,omitempty"`
	CorrectAnswer string                  `json:"correct_answer"`
	Explanation   string                  `json:"explanation,omitempty"`
	SourcePage    *int                    `json:"source_page,omitempty"`
	SourceSnippet string                  `json:"source_snippet"`
}

// Batch is one generator response. Exactly one of Cards or Questions is
// populated, matching the request kind. An empty batch signals that the
// model considers the source material exhausted.
type Batch struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Cards       []CandidateCard     `json:"cards,omitempty"`
	Questions   []CandidateQuestion `json:"questions,omitempty"`
}

// Size returns the number of candidate items in the batch.
func (b *Batch) Size() int {
	if b == nil {
		return 0
	}
	if len(b.Cards) > 0 {
		return len(b.Cards)
	}
	return len(b.Questions)
}

// Generator produces candidate study items from document chunks. It is
// the seam between the orchestrator core and any concrete LLM backend.
type Generator interface {
	// Generate runs one model call for the request. Errors are
	// classified by the taxonomy in errors.go: callers retry when
	// IsTransient reports true and fail the job otherwise.
	Generate(ctx context.Context, req Request) (*Batch, error)
}
