package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// DocumentStore defines the interface for document and chunk
// persistence. Documents enter the system already processed by an
// external ingestion pipeline; this store only records them.
type DocumentStore interface {
	// Create saves a new document.
	Create(ctx context.Context, doc *domain.Document) error

	// GetByID retrieves a document by ID.
	// Returns ErrDocumentNotFound if no document exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)

	// ListByUser returns the user's documents ordered by creation time
	// descending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)

	// UpdateStatus moves a document through its processing lifecycle.
	// Returns ErrDocumentNotFound if the document does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error

	// CreateChunks saves the document's page-mapped chunks. Run inside a
	// transaction when paired with document creation.
	CreateChunks(ctx context.Context, chunks []*domain.Chunk) error

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.Chunk, error)

	// WithTx returns a DocumentStore bound to the given transaction.
	WithTx(tx *sql.Tx) DocumentStore
}
