package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/service"
)

// VideoHandler serves /api/videos, including the upload and playback
// presign routes.
type VideoHandler struct {
	videos  *service.VideoService
	uploads *service.UploadService
	logger  *slog.Logger
}

func NewVideoHandler(videos *service.VideoService, uploads *service.UploadService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, uploads: uploads, logger: logger}
}

type videoRequest struct {
	UploaderID  string   `json:"uploaderId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	CourseCode  string   `json:"courseCode"`
	Tags        []string `json:"tags"`
	Visibility  string   `json:"visibility"`
	S3Bucket    string   `json:"s3Bucket"`
	S3Key       string   `json:"s3Key"`
	ContentType string   `json:"contentType"`
	SizeBytes   *int64   `json:"sizeBytes"`
}

func (req videoRequest) input() service.VideoInput {
	return service.VideoInput{
		UploaderID:  req.UploaderID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		CourseCode:  req.CourseCode,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
		S3Bucket:    req.S3Bucket,
		S3Key:       req.S3Key,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}
}

type videoPatchRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Subject     *string   `json:"subject"`
	CourseCode  *string   `json:"courseCode"`
	Tags        *[]string `json:"tags"`
	Visibility  *string   `json:"visibility"`
	IsDeleted   *bool     `json:"isDeleted"`
	S3Bucket    *string   `json:"s3Bucket"`
	S3Key       *string   `json:"s3Key"`
	ContentType *string   `json:"contentType"`
	SizeBytes   *int64    `json:"sizeBytes"`
}

type uploadInitRequest struct {
	UploaderID  string `json:"uploaderId"`
	ContentType string `json:"contentType"`
	Extension   string `json:"extension"`
}

// HandleList returns viewable videos.
//
// HTTP: GET /api/videos?uploader=&subject=&courseCode=&tag=&tags=&q=
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	videos, err := h.videos.List(r.Context(), auth.IdentityFromContext(r.Context()), service.VideoFilter{
		Uploader:   q.Get("uploader"),
		Subject:    q.Get("subject"),
		CourseCode: q.Get("courseCode"),
		Tags:       queryList(r, "tag", "tags"),
		Query:      q.Get("q"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// HandleGet → GET /api/videos/{id}
func (h *VideoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.videos.Get(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleCreate → POST /api/videos
func (h *VideoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	v, err := h.videos.Create(r.Context(), auth.IdentityFromContext(r.Context()), req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleReplace → PUT /api/videos/{id}
func (h *VideoHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.videos.Replace(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), req.input()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatch → PATCH /api/videos/{id}
func (h *VideoHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req videoPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err := h.videos.Patch(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"), service.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		CourseCode:  req.CourseCode,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
		IsDeleted:   req.IsDeleted,
		S3Bucket:    req.S3Bucket,
		S3Key:       req.S3Key,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete → DELETE /api/videos/{id}
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.videos.Delete(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlaybackURL returns a short-lived presigned GET for the video file
// and counts a view.
//
// HTTP: GET /api/videos/{id}/url
// RESPONSE: {"playbackUrl": "https://..."}
func (h *VideoHandler) HandlePlaybackURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.videos.PlaybackURL(r.Context(), auth.IdentityFromContext(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"playbackUrl": url})
}

// HandleUploadInit presigns a direct upload.
//
// HTTP: POST /api/videos/uploads/init
// BODY: {"uploaderId": "u_...", "contentType": "video/mp4", "extension": "mp4"}
// RESPONSE: {"bucket": "...", "key": "videos/...", "uploadUrl": "https://..."}
func (h *VideoHandler) HandleUploadInit(w http.ResponseWriter, r *http.Request) {
	var req uploadInitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ticket, err := h.uploads.Init(r.Context(), auth.IdentityFromContext(r.Context()), service.UploadInput{
		UploaderID:  req.UploaderID,
		ContentType: req.ContentType,
		Extension:   req.Extension,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
