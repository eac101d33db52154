package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
)

const DefaultUploadTTL = 15 * time.Minute

// allowedExtensions are the containers browsers can play back directly.
var allowedExtensions = map[string]bool{"mp4": true, "webm": true}

// UploadService hands out presigned PUT URLs so clients upload video bytes
// straight to object storage. The API never proxies the file.
//
// UPLOAD FLOW:
//  1. POST /api/videos/uploads/init  → {bucket, key, uploadUrl}
//  2. client PUTs the bytes to uploadUrl with the same Content-Type
//  3. POST /api/videos with s3Bucket/s3Key → metadata record
type UploadService struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewUploadService creates an UploadService. A nil presigner or empty
// bucket leaves the service unconfigured: Init then reports object storage
// as unavailable.
func NewUploadService(presigner Presigner, bucket string, ttl time.Duration, logger *slog.Logger) *UploadService {
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	return &UploadService{presigner: presigner, bucket: bucket, ttl: ttl, logger: logger}
}

// UploadInput is the init body. UploaderID defaults to the caller.
type UploadInput struct {
	UploaderID  string
	ContentType string
	Extension   string
}

// UploadTicket is where and how to upload.
type UploadTicket struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`

	// Headers the PUT must carry verbatim; they are part of the signature.
	Headers map[string]string `json:"headers"`
}

// Init validates the request and presigns a PUT bound to its content type.
func (s *UploadService) Init(ctx context.Context, caller authz.Identity, in UploadInput) (*UploadTicket, error) {
	ct, err := validateVideoContentType(in.ContentType)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.Extension), "."))
	if !allowedExtensions[ext] {
		return nil, apperror.ValidationFailed("extension", "only mp4 and webm are allowed")
	}

	uploaderID := ownerOrCaller(in.UploaderID, caller)
	if err := authz.Require(authz.OwnerOrAdmin, uploaderID, caller, "upload videos for this user"); err != nil {
		return nil, err
	}

	if s.presigner == nil || s.bucket == "" {
		return nil, apperror.Unavailable("object storage", nil)
	}

	key := ObjectKey(uploaderID, now(), ext)
	url, err := s.presigner.PresignPut(ctx, s.bucket, key, ct, s.ttl)
	if err != nil {
		return nil, apperror.Unavailable("object storage", err)
	}

	s.logger.Info("upload initialised",
		slog.String("uploader", uploaderID),
		slog.String("key", key),
	)
	return &UploadTicket{
		Bucket:    s.bucket,
		Key:       key,
		UploadURL: url,
		Headers:   map[string]string{"Content-Type": ct},
	}, nil
}

// ObjectKey lays uploads out by uploader and month:
//
//	videos/{uploader}/{yyyy}/{MM}/vid_{xid}.{ext}
func ObjectKey(uploaderID string, at time.Time, ext string) string {
	return fmt.Sprintf("videos/%s/%s/vid_%s.%s", uploaderID, at.UTC().Format("2006/01"), xid.New().String(), ext)
}
