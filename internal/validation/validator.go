// Package validation implements the anti-hallucination gate that sits
// between the generator and the stores. Every candidate item passes a
// two-stage check: grounding (the answer must be supported by the cited
// source snippet, and the snippet must come from the document) and
// well-formedness (type-specific structural constraints). Rejections
// carry a typed reason so the job log records why each candidate was
// excluded; nothing is dropped silently.
package validation

import (
	"fmt"
	"strings"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/generation"
)

// RejectionReason classifies why a candidate was rejected.
type RejectionReason string

// Possible rejection reasons
const (
	// ReasonUngrounded means the candidate's answer is not supported by
	// its cited snippet, or the snippet does not appear in the document.
	ReasonUngrounded RejectionReason = "ungrounded"
	// ReasonDuplicate means an equivalent item was already accepted
	// earlier in the same run.
	ReasonDuplicate RejectionReason = "duplicate"
	// ReasonMalformed means the candidate fails its type's structural
	// constraints.
	ReasonMalformed RejectionReason = "malformed"
)

// Result is the per-candidate outcome of a validation run. It is
// ephemeral: rejected results are written to job logs and then
// discarded, accepted ones admit the candidate into the draft.
type Result struct {
	Accepted bool
	Reason   RejectionReason
	Detail   string
	Snippet  string
}

func accepted(snippet string) Result {
	return Result{Accepted: true, Snippet: snippet}
}

func rejected(reason RejectionReason, snippet, format string, args ...any) Result {
	return Result{
		Accepted: false,
		Reason:   reason,
		Detail:   fmt.Sprintf(format, args...),
		Snippet:  snippet,
	}
}

// Predicate decides whether an answer is supported by the snippet it
// cites. The default is TokenOverlap; callers may plug in a stronger
// entailment check without touching the rest of the gate.
type Predicate func(answer, snippet string) bool

// TokenOverlap returns a Predicate that accepts when at least threshold
// of the answer's normalized tokens appear in the snippet. Tokens are
// lowercased and stripped of surrounding punctuation before comparison,
// so "Mitochondria," still matches "mitochondria". An answer with no
// tokens at all is never grounded.
func TokenOverlap(threshold float64) Predicate {
	return func(answer, snippet string) bool {
		answerTokens := tokenize(answer)
		if len(answerTokens) == 0 {
			return false
		}

		snippetTokens := make(map[string]struct{})
		for _, tok := range tokenize(snippet) {
			snippetTokens[tok] = struct{}{}
		}

		matched := 0
		for _, tok := range answerTokens {
			if _, ok := snippetTokens[tok]; ok {
				matched++
			}
		}

		return float64(matched) >= threshold*float64(len(answerTokens))
	}
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}<>")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Validator gates one generation run. It is not safe for concurrent
// use: duplicate detection accumulates state as candidates are
// accepted, so each job builds its own Validator.
type Validator struct {
	grounded    Predicate
	document    string
	seenFronts  map[string]struct{}
	seenPrompts map[string]struct{}
}

// NewValidator builds a Validator over the given document chunks. A nil
// predicate falls back to TokenOverlap(0.5).
func NewValidator(chunks []*domain.Chunk, predicate Predicate) *Validator {
	if predicate == nil {
		predicate = TokenOverlap(0.5)
	}

	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk.Content)
		b.WriteString("\n")
	}

	return &Validator{
		grounded:    predicate,
		document:    normalize(b.String()),
		seenFronts:  make(map[string]struct{}),
		seenPrompts: make(map[string]struct{}),
	}
}

// CheckCard runs the two-stage gate on a candidate card. On acceptance
// the card's front is recorded for duplicate detection within this run.
func (v *Validator) CheckCard(candidate generation.CandidateCard) Result {
	snippet := strings.TrimSpace(candidate.SourceSnippet)

	if res := v.checkCardShape(candidate); !res.Accepted {
		return res
	}

	answer := candidate.Back
	if candidate.Type == domain.CardTypeCloze {
		answer = candidate.ClozeAnswer
	}
	if res := v.checkGrounding(answer, snippet); !res.Accepted {
		return res
	}

	key := normalize(candidate.Front)
	if _, ok := v.seenFronts[key]; ok {
		return rejected(ReasonDuplicate, snippet, "card front duplicates an already accepted card")
	}
	v.seenFronts[key] = struct{}{}

	return accepted(snippet)
}

// CheckQuestion runs the two-stage gate on a candidate quiz question.
// On acceptance the prompt is recorded for duplicate detection.
func (v *Validator) CheckQuestion(candidate generation.CandidateQuestion) Result {
	snippet := strings.TrimSpace(candidate.SourceSnippet)

	if res := v.checkQuestionShape(candidate); !res.Accepted {
		return res
	}

	answer := candidate.CorrectAnswer
	if candidate.Type == domain.QuestionTypeMultipleChoice {
		// The correct answer is an option key; ground the option text.
		for _, opt := range candidate.Options {
			if opt.ID == candidate.CorrectAnswer {
				answer = opt.Text
				break
			}
		}
	}
	if candidate.Type != domain.QuestionTypeTrueFalse {
		// True/false answers carry no content of their own; the prompt
		// is graded below instead.
		if res := v.checkGrounding(answer, snippet); !res.Accepted {
			return res
		}
	} else {
		if res := v.checkGrounding(candidate.Prompt, snippet); !res.Accepted {
			return res
		}
	}

	key := normalize(candidate.Prompt)
	if _, ok := v.seenPrompts[key]; ok {
		return rejected(ReasonDuplicate, snippet, "question prompt duplicates an already accepted question")
	}
	v.seenPrompts[key] = struct{}{}

	return accepted(snippet)
}

// checkGrounding is stage one: the cited snippet must appear in the
// document, and the answer must be supported by the snippet.
func (v *Validator) checkGrounding(answer, snippet string) Result {
	if snippet == "" {
		return rejected(ReasonUngrounded, "", "candidate cites no source snippet")
	}

	if !strings.Contains(v.document, normalize(snippet)) {
		return rejected(ReasonUngrounded, snippet, "cited snippet not found in document")
	}

	if !v.grounded(answer, snippet) {
		return rejected(ReasonUngrounded, snippet, "answer not supported by cited snippet")
	}

	return accepted(snippet)
}

// checkCardShape is stage two for cards.
func (v *Validator) checkCardShape(c generation.CandidateCard) Result {
	snippet := strings.TrimSpace(c.SourceSnippet)

	switch c.Type {
	case domain.CardTypeBasic, domain.CardTypeCloze, domain.CardTypeReverse, domain.CardTypeImage:
	default:
		return rejected(ReasonMalformed, snippet, "unknown card type %q", c.Type)
	}

	if strings.TrimSpace(c.Front) == "" {
		return rejected(ReasonMalformed, snippet, "card front is empty")
	}
	if strings.TrimSpace(c.Back) == "" {
		return rejected(ReasonMalformed, snippet, "card back is empty")
	}

	if c.Type == domain.CardTypeCloze {
		answer := strings.TrimSpace(c.ClozeAnswer)
		if answer == "" {
			return rejected(ReasonMalformed, snippet, "cloze card has no deleted span")
		}
		if !strings.Contains(normalize(c.Front), normalize(answer)) {
			return rejected(ReasonMalformed, snippet, "cloze answer does not appear in card front")
		}
	}

	return accepted(snippet)
}

// checkQuestionShape is stage two for questions.
func (v *Validator) checkQuestionShape(q generation.CandidateQuestion) Result {
	snippet := strings.TrimSpace(q.SourceSnippet)

	switch q.Type {
	case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse,
		domain.QuestionTypeShortAnswer, domain.QuestionTypeFillBlank:
	default:
		return rejected(ReasonMalformed, snippet, "unknown question type %q", q.Type)
	}

	if strings.TrimSpace(q.Prompt) == "" {
		return rejected(ReasonMalformed, snippet, "question prompt is empty")
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return rejected(ReasonMalformed, snippet, "question has no correct answer")
	}

	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		if res := checkOptions(q, snippet); !res.Accepted {
			return res
		}
	case domain.QuestionTypeTrueFalse:
		answer := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		if answer != "true" && answer != "false" {
			return rejected(ReasonMalformed, snippet, "true/false answer must be %q or %q, got %q", "true", "false", q.CorrectAnswer)
		}
	}

	return accepted(snippet)
}

// checkOptions enforces the multiple-choice contract: at least two
// distinct non-empty options and exactly one marked correct.
func checkOptions(q generation.CandidateQuestion, snippet string) Result {
	if len(q.Options) < 2 {
		return rejected(ReasonMalformed, snippet, "multiple choice question has %d options, need at least 2", len(q.Options))
	}

	seen := make(map[string]struct{}, len(q.Options))
	correct := 0
	for _, opt := range q.Options {
		text := normalize(opt.Text)
		if text == "" {
			return rejected(ReasonMalformed, snippet, "multiple choice option %q is empty", opt.ID)
		}
		if _, ok := seen[text]; ok {
			return rejected(ReasonMalformed, snippet, "multiple choice options are not distinct")
		}
		seen[text] = struct{}{}

		if opt.ID == q.CorrectAnswer {
			correct++
		}
	}

	if correct != 1 {
		return rejected(ReasonMalformed, snippet, "correct answer %q matches %d options, need exactly 1", q.CorrectAnswer, correct)
	}

	return accepted(snippet)
}

// normalize collapses whitespace and lowercases so comparisons survive
// formatting drift between the model's citation and the stored chunk.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
