package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents where a document sits in its processing
// lifecycle. Ingestion itself happens outside this service; documents
// become usable for generation once they reach DocumentStatusProcessed.
type DocumentStatus string

// Possible document status values
const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document validation errors
var (
	ErrDocumentIDEmpty      = errors.New("document ID cannot be empty")
	ErrDocumentUserIDEmpty  = errors.New("document user ID cannot be empty")
	ErrDocumentTitleEmpty   = errors.New("document title cannot be empty")
	ErrInvalidDocumentState = errors.New("invalid document status")

	ErrChunkIDEmpty         = errors.New("chunk ID cannot be empty")
	ErrChunkDocumentIDEmpty = errors.New("chunk document ID cannot be empty")
	ErrChunkContentEmpty    = errors.New("chunk content cannot be empty")
	ErrChunkIndexNegative   = errors.New("chunk index cannot be negative")
)

// Document is a processed source text with a page map, stored as ordered
// chunks. Generation jobs read from its chunks; the document row itself
// only tracks identity and lifecycle.
type Document struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Title      string         `json:"title"`
	SourceType string         `json:"source_type,omitempty"`
	Status     DocumentStatus `json:"status"`
	PageCount  int            `json:"page_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewDocument creates a Document in the uploaded state.
func NewDocument(userID uuid.UUID, title, sourceType string) (*Document, error) {
	now := time.Now().UTC()
	doc := &Document{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      title,
		SourceType: sourceType,
		Status:     DocumentStatusUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks if the Document has valid data.
func (d *Document) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDocumentIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDocumentUserIDEmpty
	}

	if d.Title == "" {
		return ErrDocumentTitleEmpty
	}

	if !d.Status.IsValid() {
		return ErrInvalidDocumentState
	}

	return nil
}

// IsProcessed reports whether the document is ready to feed generation.
func (d *Document) IsProcessed() bool {
	return d.Status == DocumentStatusProcessed
}

// IsValid reports whether the status is one of the known lifecycle values.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusUploaded, DocumentStatusProcessing,
		DocumentStatusProcessed, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

// Chunk is one page-mapped span of a processed document. Chunks are
// ordered by Index and carry the page range they were extracted from so
// generated content can cite its source.
type Chunk struct {
	ID             uuid.UUID `json:"id"`
	DocumentID     uuid.UUID `json:"document_id"`
	Index          int       `json:"index"`
	StartPage      int       `json:"start_page"`
	EndPage        int       `json:"end_page"`
	Content        string    `json:"content"`
	HeadingContext string    `json:"heading_context,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewChunk creates a Chunk for the given document span.
func NewChunk(documentID uuid.UUID, index, startPage, endPage int, content string) (*Chunk, error) {
	chunk := &Chunk{
		ID:         uuid.New(),
		DocumentID: documentID,
		Index:      index,
		StartPage:  startPage,
		EndPage:    endPage,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	if err := chunk.Validate(); err != nil {
		return nil, err
	}

	return chunk, nil
}

// Validate checks if the Chunk has valid data.
func (c *Chunk) Validate() error {
	if c.ID == uuid.Nil {
		return ErrChunkIDEmpty
	}

	if c.DocumentID == uuid.Nil {
		return ErrChunkDocumentIDEmpty
	}

	if c.Index < 0 {
		return ErrChunkIndexNegative
	}

	if c.Content == "" {
		return ErrChunkContentEmpty
	}

	return nil
}
