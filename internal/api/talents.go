package api

import (
	"net/http"
	"time"

	"github.com/talentdesk/talentchat/internal/cache"
	"github.com/talentdesk/talentchat/internal/chatbot"
	"github.com/talentdesk/talentchat/internal/log"
	"github.com/talentdesk/talentchat/internal/talent"
)

// talentHandler serves the talent-scoped endpoints: chat, conversation
// access, analysis, and conversation starters.
type talentHandler struct {
	svc      *chatbot.Service
	sessions *cache.Cache
	logger   log.Logger
}

type chatRequest struct {
	Message        string            `json:"message"`
	ConversationID string            `json:"conversationId,omitempty"`
	UserID         string            `json:"userId,omitempty"`
	History        []chatbot.Message `json:"history,omitempty"`
	Profile        *talent.Profile   `json:"profile"`
}

type chatResponse struct {
	Reply          *chatbot.Message `json:"reply"`
	ConversationID string           `json:"conversationId"`
}

// chat handles POST /api/talents/{id}/chat.
func (h *talentHandler) chat(w http.ResponseWriter, r *http.Request) {
	talentID := r.PathValue("id")

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}
	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, "missing_profile", "profile is required", h.logger)
		return
	}
	// The path segment is authoritative for the talent identity.
	req.Profile.ID = talentID

	if req.UserID != "" {
		h.touchUserSession(req.UserID)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = chatbot.DefaultConversationID
	}

	reply, err := h.svc.Chat(r.Context(), chatbot.ChatRequest{
		Message:        req.Message,
		TalentID:       talentID,
		Profile:        req.Profile,
		History:        req.History,
		ConversationID: conversationID,
	})
	if err != nil {
		h.logger.Error("chat failed", "talent_id", talentID, "error", err)
		writeError(w, http.StatusBadGateway, "chat_failed", "chat generation failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, ConversationID: conversationID}, h.logger)
}

// getConversation handles GET /api/talents/{id}/conversations/{conversationId}.
func (h *talentHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	history := h.svc.History(r.PathValue("id"), r.PathValue("conversationId"))
	if history == nil {
		history = []chatbot.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history}, h.logger)
}

// deleteConversation handles DELETE /api/talents/{id}/conversations/{conversationId}.
func (h *talentHandler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearConversation(r.PathValue("id"), r.PathValue("conversationId"))
	w.WriteHeader(http.StatusNoContent)
}

// analyze handles POST /api/talents/{id}/analysis. The body is the profile.
func (h *talentHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var profile talent.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	profile.ID = r.PathValue("id")

	analysis, err := h.svc.AnalyzeTalent(r.Context(), &profile)
	if err != nil {
		h.logger.Error("analysis failed", "talent_id", profile.ID, "error", err)
		writeError(w, http.StatusBadGateway, "analysis_failed", "talent analysis failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, analysis, h.logger)
}

// starters handles POST /api/talents/{id}/starters. The body is the profile.
func (h *talentHandler) starters(w http.ResponseWriter, r *http.Request) {
	var profile talent.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if profile.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", "profile name is required", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"starters": chatbot.ConversationStarters(&profile),
	}, h.logger)
}

// touchUserSession records dashboard activity for the user. The entry only
// exists so session liveness can be inspected; it expires on its own.
func (h *talentHandler) touchUserSession(userID string) {
	h.sessions.Set(cache.UserSessionKey(userID),
		time.Now().UTC().Format(time.RFC3339), cache.UserSessionTTL)
}
