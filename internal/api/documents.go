package api

import (
	"net/http"

	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/rag"
)

// documentHandler exposes the retrieval layer directly: bulk document
// indexing, filtered similarity search, and per-talent deletion.
type documentHandler struct {
	retrieval *rag.Selector
	logger    log.Logger
}

type indexRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchRequest struct {
	Query  string     `json:"query"`
	K      int        `json:"k,omitempty"`
	Filter rag.Filter `json:"filter,omitempty"`
}

// index handles POST /api/documents. Indexing is fire-and-forget in the
// retrieval layer, so the response only acknowledges acceptance.
func (h *documentHandler) index(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "missing_content", "content is required", h.logger)
		return
	}

	h.retrieval.IndexDocument(r.Context(), req.Content, req.Metadata)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"}, h.logger)
}

// search handles POST /api/documents/search.
func (h *documentHandler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required", h.logger)
		return
	}

	results := h.retrieval.SearchDocuments(r.Context(), req.Query, req.K, req.Filter)
	if results == nil {
		results = []rag.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results}, h.logger)
}

// deleteTalentDocuments handles DELETE /api/talents/{id}/documents.
func (h *documentHandler) deleteTalentDocuments(w http.ResponseWriter, r *http.Request) {
	deleted := h.retrieval.DeleteTalentDocuments(r.Context(), r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted}, h.logger)
}
