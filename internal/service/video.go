package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/repository"
	"github.com/sakif/openlecture/internal/stringset"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000

	DefaultPlaybackTTL = 10 * time.Minute
)

// VideoService manages video metadata. The bytes live in object storage;
// see UploadService for getting them there.
type VideoService struct {
	videos      repository.Collection[model.Video]
	presigner   Presigner
	playbackTTL time.Duration
	logger      *slog.Logger
}

// NewVideoService creates a VideoService. presigner may be nil, in which
// case PlaybackURL reports object storage as unavailable.
func NewVideoService(
	videos repository.Collection[model.Video],
	presigner Presigner,
	playbackTTL time.Duration,
	logger *slog.Logger,
) *VideoService {
	if playbackTTL <= 0 {
		playbackTTL = DefaultPlaybackTTL
	}
	return &VideoService{
		videos:      videos,
		presigner:   presigner,
		playbackTTL: playbackTTL,
		logger:      logger,
	}
}

// VideoFilter narrows List. Empty fields match everything.
type VideoFilter struct {
	Uploader   string   // exact match
	Subject    string   // case-insensitive
	CourseCode string   // case-insensitive
	Tags       []string // any-match, case-insensitive
	Query      string   // case-insensitive substring of title or description
}

// VideoInput is the create / full-replace body. UploaderID is only read on
// create.
type VideoInput struct {
	UploaderID  string
	Title       string
	Description string
	Subject     string
	CourseCode  string
	Tags        []string
	Visibility  string
	S3Bucket    string
	S3Key       string
	ContentType string
	SizeBytes   *int64
}

// VideoPatch holds optional fields; nil means "leave unchanged".
type VideoPatch struct {
	Title       *string
	Description *string
	Subject     *string
	CourseCode  *string
	Tags        *[]string
	Visibility  *string
	IsDeleted   *bool
	S3Bucket    *string
	S3Key       *string
	ContentType *string
	SizeBytes   *int64
}

// List returns the non-deleted videos the caller may view, filtered.
func (s *VideoService) List(ctx context.Context, caller authz.Identity, f VideoFilter) ([]model.Video, error) {
	all, err := s.videos.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}

	wantTags := stringset.New(f.Tags...)
	query := stringset.Fold(strings.TrimSpace(f.Query))

	out := make([]model.Video, 0, len(all))
	for _, v := range all {
		if v.IsDeleted || !authz.CanView(v.Visibility, v.UploaderID, caller) {
			continue
		}
		if f.Uploader != "" && v.UploaderID != f.Uploader {
			continue
		}
		if f.Subject != "" && !stringset.EqualFold(v.Subject, f.Subject) {
			continue
		}
		if f.CourseCode != "" && !stringset.EqualFold(v.CourseCode, f.CourseCode) {
			continue
		}
		if wantTags.Len() > 0 && !anyTag(v.Tags, wantTags) {
			continue
		}
		if query != "" &&
			!strings.Contains(stringset.Fold(v.Title), query) &&
			!strings.Contains(stringset.Fold(v.Description), query) {
			continue
		}
		out = append(out, v)
	}

	sortByCreated(out, func(v model.Video) time.Time { return v.CreatedAt })
	return out, nil
}

func anyTag(tags []string, want stringset.Set) bool {
	for _, t := range tags {
		if want.Contains(t) {
			return true
		}
	}
	return false
}

// Get returns one viewable, non-deleted video.
func (s *VideoService) Get(ctx context.Context, caller authz.Identity, videoID string) (*model.Video, error) {
	v, err := s.live(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireView(v.Visibility, v.UploaderID, caller, "video"); err != nil {
		return nil, err
	}
	return v, nil
}

// Create stores metadata for an uploaded object. The uploader defaults to
// the caller; naming someone else requires admin.
func (s *VideoService) Create(ctx context.Context, caller authz.Identity, in VideoInput) (*model.Video, error) {
	uploaderID := ownerOrCaller(in.UploaderID, caller)
	if err := authz.Require(authz.OwnerOrAdmin, uploaderID, caller, "upload videos for this user"); err != nil {
		return nil, err
	}

	v := &model.Video{
		ID:         model.NewID(model.PrefixVideo),
		UploaderID: uploaderID,
		CreatedAt:  now(),
	}
	if err := applyVideoInput(v, in); err != nil {
		return nil, err
	}

	if err := s.videos.Put(ctx, v); err != nil {
		s.logger.Error("failed to create video",
			slog.String("title", v.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating video: %w", err)
	}

	s.logger.Info("video created",
		slog.String("id", v.ID),
		slog.String("uploader", v.UploaderID),
		slog.String("visibility", string(v.Visibility)),
	)
	return v, nil
}

// Replace overwrites all client-writable metadata, including the object
// reference, so a video's file can be swapped for a new upload.
func (s *VideoService) Replace(ctx context.Context, caller authz.Identity, videoID string, in VideoInput) (*model.Video, error) {
	v, err := s.live(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, v.UploaderID, caller, "update this video"); err != nil {
		return nil, err
	}

	if err := applyVideoInput(v, in); err != nil {
		return nil, err
	}
	v.UpdatedAt = stamp()

	if err := s.videos.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("replacing video %s: %w", v.ID, err)
	}
	return v, nil
}

// Patch merges the given fields. It also reaches soft-deleted videos so an
// owner can restore one with isDeleted=false.
func (s *VideoService) Patch(ctx context.Context, caller authz.Identity, videoID string, p VideoPatch) (*model.Video, error) {
	v, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, v.UploaderID, caller, "update this video"); err != nil {
		return nil, err
	}

	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return nil, err
		}
		v.Title = title
	}
	if p.Description != nil {
		desc, err := validateDescription(*p.Description)
		if err != nil {
			return nil, err
		}
		v.Description = desc
	}
	if p.Subject != nil {
		v.Subject = subjectOrDefault(*p.Subject)
	}
	if p.CourseCode != nil {
		v.CourseCode = strings.TrimSpace(*p.CourseCode)
	}
	if p.Tags != nil {
		v.Tags = stringset.New(*p.Tags...).List()
	}
	if p.Visibility != nil {
		vis, ok := authz.ParseVisibility(*p.Visibility)
		if !ok {
			return nil, apperror.ValidationFailed("visibility", "visibility must be Public or Private")
		}
		v.Visibility = vis
	}
	if p.ContentType != nil {
		ct, err := validateVideoContentType(*p.ContentType)
		if err != nil {
			return nil, err
		}
		v.ContentType = ct
	}
	if p.S3Bucket != nil {
		v.S3Bucket = strings.TrimSpace(*p.S3Bucket)
	}
	if p.S3Key != nil {
		v.S3Key = strings.TrimSpace(*p.S3Key)
	}
	if p.SizeBytes != nil {
		if *p.SizeBytes < 0 {
			return nil, apperror.ValidationFailed("sizeBytes", "sizeBytes must not be negative")
		}
		size := *p.SizeBytes
		v.SizeBytes = &size
	}
	if p.IsDeleted != nil {
		v.IsDeleted = *p.IsDeleted
	}
	v.UpdatedAt = stamp()

	if err := s.videos.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("patching video %s: %w", v.ID, err)
	}
	return v, nil
}

// Delete soft-deletes the video. Its comments and reactions are left alone.
func (s *VideoService) Delete(ctx context.Context, caller authz.Identity, videoID string) error {
	v, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.OwnerOrAdmin, v.UploaderID, caller, "delete this video"); err != nil {
		return err
	}

	v.IsDeleted = true
	v.UpdatedAt = stamp()
	if err := s.videos.Put(ctx, v); err != nil {
		return fmt.Errorf("deleting video %s: %w", v.ID, err)
	}

	s.logger.Info("video deleted", slog.String("id", v.ID), slog.String("by", caller.SubjectID))
	return nil
}

// PlaybackURL returns a presigned GET for the video's object and counts a
// view. The count is a read-modify-write like every other counter, so
// concurrent plays can lose increments.
func (s *VideoService) PlaybackURL(ctx context.Context, caller authz.Identity, videoID string) (string, error) {
	if s.presigner == nil {
		return "", apperror.Unavailable("object storage", nil)
	}

	v, err := s.Get(ctx, caller, videoID)
	if err != nil {
		return "", err
	}
	if v.S3Bucket == "" || v.S3Key == "" {
		return "", apperror.ValidationFailed("s3Key", "video has no uploaded object")
	}

	url, err := s.presigner.PresignGet(ctx, v.S3Bucket, v.S3Key, s.playbackTTL)
	if err != nil {
		return "", apperror.Unavailable("object storage", err)
	}

	v.ViewCount++
	if err := s.videos.Put(ctx, v); err != nil {
		return "", fmt.Errorf("counting view on video %s: %w", v.ID, err)
	}
	return url, nil
}

// live loads a video and hides soft-deleted ones.
func (s *VideoService) live(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.IsDeleted {
		return nil, apperror.NotFound("video", videoID)
	}
	return v, nil
}

// applyVideoInput validates in and copies it onto v. Counters, id,
// uploader and timestamps are never taken from input.
func applyVideoInput(v *model.Video, in VideoInput) error {
	title, err := validateTitle(in.Title)
	if err != nil {
		return err
	}
	desc, err := validateDescription(in.Description)
	if err != nil {
		return err
	}
	vis, err := parseVisibility(in.Visibility, authz.Public)
	if err != nil {
		return err
	}
	ct, err := validateVideoContentType(in.ContentType)
	if err != nil {
		return err
	}
	if in.SizeBytes != nil && *in.SizeBytes < 0 {
		return apperror.ValidationFailed("sizeBytes", "sizeBytes must not be negative")
	}

	v.Title = title
	v.Description = desc
	v.Subject = subjectOrDefault(in.Subject)
	v.CourseCode = strings.TrimSpace(in.CourseCode)
	v.Tags = stringset.New(in.Tags...).List()
	v.Visibility = vis
	v.S3Bucket = strings.TrimSpace(in.S3Bucket)
	v.S3Key = strings.TrimSpace(in.S3Key)
	v.ContentType = ct
	v.SizeBytes = nil
	if in.SizeBytes != nil {
		size := *in.SizeBytes
		v.SizeBytes = &size
	}
	return nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

func validateDescription(raw string) (string, error) {
	desc := strings.TrimSpace(raw)
	if len(desc) > MaxDescriptionLength {
		return "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return desc, nil
}

// validateVideoContentType accepts any "video/*" media type, ignoring the
// case of the prefix.
func validateVideoContentType(raw string) (string, error) {
	ct := strings.TrimSpace(raw)
	if len(ct) <= len("video/") || !strings.EqualFold(ct[:len("video/")], "video/") {
		return "", apperror.ValidationFailed("contentType", "contentType must start with video/")
	}
	return ct, nil
}

func subjectOrDefault(raw string) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return model.DefaultSubject
}
