package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/service"
)

// PlaylistHandler serves /api/playlists.
type PlaylistHandler struct {
	playlists *service.PlaylistService
	logger    *slog.Logger
}

func NewPlaylistHandler(playlists *service.PlaylistService, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, logger: logger}
}

// playlistView is a playlist as clients see it. The stored record omits an
// empty set; callers always get videoIds, as [] when there are none.
type playlistView struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	OwnerID    string           `json:"ownerId"`
	Visibility authz.Visibility `json:"visibility"`
	VideoIDs   []string         `json:"videoIds"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
	IsDeleted  bool             `json:"isDeleted"`
}

func viewPlaylist(p *model.Playlist) playlistView {
	return playlistView{
		ID:         p.ID,
		Name:       p.Name,
		OwnerID:    p.OwnerID,
		Visibility: p.Visibility,
		VideoIDs:   p.Videos(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		IsDeleted:  p.IsDeleted,
	}
}

func viewPlaylists(playlists []model.Playlist) []playlistView {
	out := make([]playlistView, 0, len(playlists))
	for i := range playlists {
		out = append(out, viewPlaylist(&playlists[i]))
	}
	return out
}

type playlistRequest struct {
	Name       string   `json:"name"`
	OwnerID    string   `json:"ownerId"`
	Visibility string   `json:"visibility"`
	VideoIDs   []string `json:"videoIds"`
}

func (req playlistRequest) input() service.PlaylistInput {
	return service.PlaylistInput{
		Name:       req.Name,
		OwnerID:    req.OwnerID,
		Visibility: req.Visibility,
		VideoIDs:   req.VideoIDs,
	}
}

type playlistPatchRequest struct {
	Name       *string `json:"name"`
	Visibility *string `json:"visibility"`
}

type addVideoRequest struct {
	VideoID string `json:"videoId"`
}

// HandleList → GET /api/playlists
func (h *PlaylistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPlaylists(playlists))
}

// HandleMine → GET /api/playlists/me
func (h *PlaylistHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.Mine(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPlaylists(playlists))
}

// HandleGet → GET /api/playlists/{id}
func (h *PlaylistHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Get(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPlaylist(p))
}

// HandleCreate → POST /api/playlists
func (h *PlaylistHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.playlists.Create(r.Context(), auth.IdentityFromContext(r.Context()), req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewPlaylist(p))
}

// HandleReplace → PUT /api/playlists/{id}
func (h *PlaylistHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.playlists.Replace(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.input()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch → PATCH /api/playlists/{id}
func (h *PlaylistHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req playlistPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.playlists.Patch(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"),
		service.PlaylistPatch{Name: req.Name, Visibility: req.Visibility})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete → DELETE /api/playlists/{id}
func (h *PlaylistHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.playlists.Delete(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddVideo adds one video to the set and returns the playlist.
//
// HTTP: POST /api/playlists/{id}/videos
// BODY: {"videoId": "v_..."}
func (h *PlaylistHandler) HandleAddVideo(w http.ResponseWriter, r *http.Request) {
	var req addVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.playlists.AddVideo(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.VideoID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPlaylist(p))
}

// HandleRemoveVideo → DELETE /api/playlists/{id}/videos/{videoId}
func (h *PlaylistHandler) HandleRemoveVideo(w http.ResponseWriter, r *http.Request) {
	_, err := h.playlists.RemoveVideo(r.Context(), auth.IdentityFromContext(r.Context()),
		pathParam(r, "id"), pathParam(r, "videoId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
