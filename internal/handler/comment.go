package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/service"
)

// CommentHandler serves /api/comments.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type commentRequest struct {
	VideoID  string `json:"videoId"`
	UserID   string `json:"userId"`
	Content  string `json:"content"`
	ParentID string `json:"parentId"`
}

type commentPatchRequest struct {
	Content   *string `json:"content"`
	IsDeleted *bool   `json:"isDeleted"`
}

// HandleList → GET /api/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleGet → GET /api/comments/{id}
func (h *CommentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.comments.Get(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleByVideo → GET /api/comments/videos/{videoId}?includeDeleted=true
func (h *CommentHandler) HandleByVideo(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ByVideo(r.Context(), auth.IdentityFromContext(r.Context()),
		pathParam(r, "videoId"), queryBool(r, "includeDeleted"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleReplies → GET /api/comments/parents/{parentId}/replies?includeDeleted=true
func (h *CommentHandler) HandleReplies(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.Replies(r.Context(), auth.IdentityFromContext(r.Context()),
		pathParam(r, "parentId"), queryBool(r, "includeDeleted"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleCreate → POST /api/comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.comments.Create(r.Context(), auth.IdentityFromContext(r.Context()), service.CommentInput{
		VideoID:  req.VideoID,
		UserID:   req.UserID,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleReplace → PUT /api/comments/{id}
func (h *CommentHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.comments.Replace(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.Content); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch → PATCH /api/comments/{id}
func (h *CommentHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req commentPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.comments.Patch(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"),
		service.CommentPatch{Content: req.Content, IsDeleted: req.IsDeleted})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete soft-deletes a comment, or removes it with ?purge=true.
//
// HTTP: DELETE /api/comments/{id}?purge=true
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.comments.Delete(r.Context(), auth.IdentityFromContext(r.Context()),
		pathParam(r, "id"), queryBool(r, "purge"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
