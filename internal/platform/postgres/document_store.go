package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// PostgresDocumentStore implements store.DocumentStore using PostgreSQL.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a PostgreSQL implementation of
// store.DocumentStore. If logger is nil, slog.Default is used.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDocumentStore{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// WithTx implements store.DocumentStore.WithTx.
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{db: tx, logger: s.logger}
}

// Create implements store.DocumentStore.Create.
func (s *PostgresDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := doc.Validate(); err != nil {
		log.Warn("document validation failed during create",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return err
	}

	query := `
		INSERT INTO documents (id, user_id, title, source_type, status, page_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.SourceType,
		doc.Status,
		doc.PageCount,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create document",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return MapError(err)
	}

	log.Info("document created",
		slog.String("document_id", doc.ID.String()),
		slog.String("status", string(doc.Status)))
	return nil
}

// GetByID implements store.DocumentStore.GetByID.
func (s *PostgresDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, source_type, status, page_count, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var doc domain.Document
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&doc.SourceType,
		&status,
		&doc.PageCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("document not found", slog.String("document_id", id.String()))
			return nil, store.ErrDocumentNotFound
		}
		log.Error("failed to get document by ID",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return nil, MapError(err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// ListByUser implements store.DocumentStore.ListByUser.
func (s *PostgresDocumentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, source_type, status, page_count, created_at, updated_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list documents",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	docs := []*domain.Document{}
	for rows.Next() {
		var doc domain.Document
		var status string
		err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.Title,
			&doc.SourceType,
			&status,
			&doc.PageCount,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan document row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating document rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return docs, nil
}

// UpdateStatus implements store.DocumentStore.UpdateStatus.
func (s *PostgresDocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.NewValidationError("status", "invalid document status", domain.ErrValidation)
	}

	query := `
		UPDATE documents
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update document status",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrDocumentNotFound)
}

// CreateChunks implements store.DocumentStore.CreateChunks.
func (s *PostgresDocumentStore) CreateChunks(ctx context.Context, chunks []*domain.Chunk) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO document_chunks (id, document_id, chunk_index, start_page, end_page, content, heading_context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, query,
			chunk.ID,
			chunk.DocumentID,
			chunk.Index,
			chunk.StartPage,
			chunk.EndPage,
			chunk.Content,
			chunk.HeadingContext,
			chunk.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create document chunk",
				slog.String("error", err.Error()),
				slog.String("chunk_id", chunk.ID.String()),
				slog.String("document_id", chunk.DocumentID.String()))
			return MapError(err)
		}
	}

	log.Debug("document chunks created",
		slog.String("document_id", chunks[0].DocumentID.String()),
		slog.Int("count", len(chunks)))
	return nil
}

// GetChunks implements store.DocumentStore.GetChunks.
func (s *PostgresDocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.Chunk, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, document_id, chunk_index, start_page, end_page, content, heading_context, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		log.Error("failed to query document chunks",
			slog.String("error", err.Error()),
			slog.String("document_id", documentID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	chunks := []*domain.Chunk{}
	for rows.Next() {
		var chunk domain.Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.StartPage,
			&chunk.EndPage,
			&chunk.Content,
			&chunk.HeadingContext,
			&chunk.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan chunk row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating chunk rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return chunks, nil
}
