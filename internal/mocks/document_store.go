package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// MockDocumentStore implements store.DocumentStore over in-memory maps.
type MockDocumentStore struct {
	CreateFn       func(ctx context.Context, doc *domain.Document) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByUserFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error
	CreateChunksFn func(ctx context.Context, chunks []*domain.Chunk) error
	GetChunksFn    func(ctx context.Context, documentID uuid.UUID) ([]*domain.Chunk, error)

	Documents map[uuid.UUID]*domain.Document
	Chunks    map[uuid.UUID][]*domain.Chunk
}

var _ store.DocumentStore = (*MockDocumentStore)(nil)

// NewMockDocumentStore creates an empty in-memory document store.
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		Documents: make(map[uuid.UUID]*domain.Document),
		Chunks:    make(map[uuid.UUID][]*domain.Chunk),
	}
}

// Add seeds a document with its chunks.
func (m *MockDocumentStore) Add(doc *domain.Document, chunks ...*domain.Chunk) {
	m.Documents[doc.ID] = doc
	m.Chunks[doc.ID] = chunks
}

func (m *MockDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, doc)
	}
	m.Documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	doc, ok := m.Documents[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	var docs []*domain.Document
	for _, doc := range m.Documents {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockDocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	doc, ok := m.Documents[id]
	if !ok {
		return store.ErrDocumentNotFound
	}
	doc.Status = status
	return nil
}

func (m *MockDocumentStore) CreateChunks(ctx context.Context, chunks []*domain.Chunk) error {
	if m.CreateChunksFn != nil {
		return m.CreateChunksFn(ctx, chunks)
	}
	for _, chunk := range chunks {
		m.Chunks[chunk.DocumentID] = append(m.Chunks[chunk.DocumentID], chunk)
	}
	return nil
}

func (m *MockDocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.Chunk, error) {
	if m.GetChunksFn != nil {
		return m.GetChunksFn(ctx, documentID)
	}
	return m.Chunks[documentID], nil
}

func (m *MockDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore { return m }
