package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// DocumentService provides read access to a user's source documents.
// Ingestion happens outside this API; documents arrive already chunked.
type DocumentService interface {
	// List returns the user's documents, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)

	// Get returns one document. Returns store.ErrDocumentNotFound if
	// absent and ErrNotOwned for another user's document.
	Get(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, error)
}

type documentService struct {
	documents store.DocumentStore
	logger    *slog.Logger
}

// NewDocumentService creates a DocumentService over the given store.
func NewDocumentService(documents store.DocumentStore, logger *slog.Logger) DocumentService {
	return &documentService{
		documents: documents,
		logger:    logger.With(slog.String("component", "document_service")),
	}
}

func (s *documentService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	docs, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list documents",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, opError("document", "list", err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, userID, documentID uuid.UUID) (*domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load document",
			slog.String("error", err.Error()),
			slog.String("document_id", documentID.String()))
		return nil, opError("document", "get", err)
	}
	if doc.UserID != userID {
		return nil, ErrNotOwned
	}
	return doc, nil
}
