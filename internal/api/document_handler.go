package api

import (
	"net/http"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
)

// DocumentListResponse wraps the user's document list.
type DocumentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Count     int                `json:"count"`
}

// DocumentHandler handles document-related HTTP requests.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// ListDocuments handles GET /api/documents requests.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	docs, err := h.documentService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list documents")
		return
	}

	if docs == nil {
		docs = []*domain.Document{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DocumentListResponse{
		Documents: docs,
		Count:     len(docs),
	})
}

// GetDocument handles GET /api/documents/{id} requests.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, documentID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(r.Context(), userID, documentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}
