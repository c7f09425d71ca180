package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/revisehq/revise-api/internal/config"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/generation"
)

// Fallbacks applied when the retry settings in config are out of range.
const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// generateFunc performs one model call. The indirection lets tests stub
// the API without constructing a network client.
type generateFunc func(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error)

// GeminiGenerator implements generation.Generator using Google's Gemini
// API. One Generate call issues one model request and parses the JSON
// reply into a candidate batch; transient API failures are retried with
// exponential backoff and jitter, while blocked or malformed responses
// fail immediately.
type GeminiGenerator struct {
	logger    *slog.Logger
	templates *template.Template
	client    *genai.Client
	generate  generateFunc
	model     string

	maxRetries int
	baseDelay  time.Duration
}

// Compile-time check that GeminiGenerator satisfies the Generator
// interface.
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by the Gemini API.
//
// It validates the LLM configuration, parses the embedded prompt
// templates and initializes the API client. The context is only used
// for client construction.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templates, err := parsePromptTemplates()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt templates: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	g := &GeminiGenerator{
		logger:     logger.With(slog.String("component", "gemini_generator")),
		templates:  templates,
		client:     client,
		model:      cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
	g.generate = client.Models.GenerateContent

	if g.maxRetries < 0 {
		logger.Warn("invalid max retries value, using default",
			slog.Int("max_retries", defaultMaxRetries))
		g.maxRetries = defaultMaxRetries
	}
	if g.baseDelay < time.Second {
		logger.Warn("invalid retry delay value, using default",
			slog.Duration("base_delay", defaultRetryDelay))
		g.baseDelay = defaultRetryDelay
	}

	return g, nil
}

// Generate renders the prompt for the request's kind, calls the model
// and parses the reply into a candidate batch. An empty batch is a
// valid outcome: it means the model considers the source material
// exhausted for this request.
func (g *GeminiGenerator) Generate(
	ctx context.Context,
	req generation.Request,
) (*generation.Batch, error) {
	if len(req.Chunks) == 0 {
		return nil, ErrNoSourceChunks
	}

	prompt, err := buildPrompt(g.templates, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	g.logger.DebugContext(ctx, "built generation prompt",
		slog.String("kind", string(req.Kind)),
		slog.Int("chunk_count", len(req.Chunks)),
		slog.Int("prompt_length", len(prompt)))

	return g.callWithRetry(ctx, prompt, req.Kind)
}

// callWithRetry issues the model call, retrying transient failures up
// to maxRetries times with exponential backoff and jitter. Permanent
// errors, blocked content and malformed replies, return immediately.
func (g *GeminiGenerator) callWithRetry(
	ctx context.Context,
	prompt string,
	kind domain.JobKind,
) (*generation.Batch, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", g.maxRetries+1),
			slog.String("model", g.model))

		resp, err := g.generate(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.4),
			ResponseMIMEType: "application/json",
		})
		if err == nil {
			var batch *generation.Batch
			batch, err = parseBatch(resp, kind)
			if err == nil {
				g.logger.InfoContext(ctx, "Gemini API call succeeded",
					slog.Int("attempt", attempt+1),
					slog.Int("item_count", batch.Size()))
				return batch, nil
			}
		} else {
			err = classifyAPIError(err)
		}

		g.logger.WarnContext(ctx, "Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !generation.IsTransient(err) {
			return nil, err
		}

		if attempt >= g.maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, g.maxRetries)
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoff := float64(g.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		g.logger.DebugContext(ctx, "retrying after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// classifyAPIError maps a client error into the generation error
// taxonomy. Rate limits and server-side failures are transient; other
// API errors are permanent. Errors without an API status, usually
// network failures, are assumed transient.
func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}

// parseBatch extracts the reply text from a model response and decodes
// it into a candidate batch for the requested kind.
func parseBatch(resp *genai.GenerateContentResponse, kind domain.JobKind) (*generation.Batch, error) {
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var batch generation.Batch
	if err := json.Unmarshal([]byte(stripFences(text)), &batch); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON reply: %v",
			generation.ErrInvalidResponse, err)
	}

	switch kind {
	case domain.JobKindDeck:
		if len(batch.Questions) > 0 {
			return nil, fmt.Errorf("%w: deck request produced quiz questions",
				generation.ErrInvalidResponse)
		}
	case domain.JobKindQuiz:
		if len(batch.Cards) > 0 {
			return nil, fmt.Errorf("%w: quiz request produced flashcards",
				generation.ErrInvalidResponse)
		}
	}

	return &batch, nil
}

// responseText returns the concatenated text parts of the first
// candidate, or a typed error when the response is blocked or empty.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if fb := resp.PromptFeedback; fb != nil &&
		fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, fb.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts in response", generation.ErrInvalidResponse)
	}

	return sb.String(), nil
}

// stripFences removes a surrounding markdown code fence, which some
// models emit even when asked for raw JSON.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
