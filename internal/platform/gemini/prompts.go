package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// promptData is the input to the prompt templates.
type promptData struct {
	Count       int
	ItemTypes   string
	Difficulty  string
	FocusTopics string
	Exclude     []string
	Chunks      []promptChunk
}

// promptChunk is one source span with its page label, "3" or "3-5".
type promptChunk struct {
	Pages   string
	Content string
}

func parsePromptTemplates() (*template.Template, error) {
	return template.ParseFS(promptFS, "prompts/*.tmpl")
}

// buildPrompt renders the template for the request's kind.
func buildPrompt(tmpl *template.Template, req generation.Request) (string, error) {
	name := "deck.tmpl"
	if req.Kind == domain.JobKindQuiz {
		name = "quiz.tmpl"
	}

	data := promptData{
		Count:       req.Count,
		ItemTypes:   strings.Join(req.ItemTypes, ", "),
		FocusTopics: strings.Join(req.FocusTopics, ", "),
		Exclude:     req.Exclude,
		Chunks:      make([]promptChunk, 0, len(req.Chunks)),
	}
	if req.Difficulty != "" {
		data.Difficulty = string(req.Difficulty)
	}
	for _, chunk := range req.Chunks {
		data.Chunks = append(data.Chunks, promptChunk{
			Pages:   pageLabel(chunk),
			Content: chunk.Content,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template %s: %w", name, err)
	}

	return buf.String(), nil
}

func pageLabel(chunk *domain.Chunk) string {
	if chunk.StartPage == chunk.EndPage {
		return strconv.Itoa(chunk.StartPage)
	}
	return fmt.Sprintf("%d-%d", chunk.StartPage, chunk.EndPage)
}
