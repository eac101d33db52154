package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/service"
)

// ReactionHandler serves /api/reactions.
type ReactionHandler struct {
	reactions *service.ReactionService
	logger    *slog.Logger
}

func NewReactionHandler(reactions *service.ReactionService, logger *slog.Logger) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, logger: logger}
}

type reactionRequest struct {
	VideoID string `json:"videoId"`
	UserID  string `json:"userId"`
	Type    string `json:"type"`
}

func (req reactionRequest) input() service.ReactionInput {
	return service.ReactionInput{VideoID: req.VideoID, UserID: req.UserID, Type: req.Type}
}

type reactionPatchRequest struct {
	Type *string `json:"type"`
}

// HandleList → GET /api/reactions
func (h *ReactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reactions, err := h.reactions.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reactions)
}

// HandleGet → GET /api/reactions/{id}
func (h *ReactionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reaction, err := h.reactions.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reaction)
}

// HandleUpsert sets the caller's reaction to a video.
//
// HTTP: POST /api/reactions
// BODY: {"videoId": "v_...", "type": "Like" | "Dislike" | "None"}
func (h *ReactionHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	reaction, err := h.reactions.Upsert(r.Context(), auth.IdentityFromContext(r.Context()), req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reaction)
}

// HandleReplace → PUT /api/reactions/{id}
func (h *ReactionHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.reactions.Replace(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.input()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch → PATCH /api/reactions/{id}
func (h *ReactionHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req reactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.reactions.Patch(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.Type); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete → DELETE /api/reactions/{id}. Absent records still get 204.
func (h *ReactionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.reactions.Delete(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary → GET /api/reactions/videos/{videoId}/summary
func (h *ReactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reactions.Summary(r.Context(), pathParam(r, "videoId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
