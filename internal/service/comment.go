package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/reconcile"
	"github.com/sakif/openlecture/internal/repository"
)

const MaxCommentLength = 2000

// CommentService manages comments and keeps Video.commentCount in step.
type CommentService struct {
	comments repository.Collection[model.Comment]
	videos   repository.Collection[model.Video]
	counters *reconcile.Counters
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.Collection[model.Comment],
	videos repository.Collection[model.Video],
	counters *reconcile.Counters,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{comments: comments, videos: videos, counters: counters, logger: logger}
}

// CommentView is a comment as clients see it. IsOwnerReply marks comments
// written by the uploader of the video they sit on.
type CommentView struct {
	model.Comment
	IsOwnerReply bool `json:"isOwnerReply"`
}

func viewOf(c model.Comment, uploaderID string) CommentView {
	return CommentView{Comment: c, IsOwnerReply: uploaderID != "" && c.UserID == uploaderID}
}

// CommentInput is the create body. UserID defaults to the caller.
type CommentInput struct {
	VideoID  string
	UserID   string
	Content  string
	ParentID string
}

// CommentPatch holds optional fields; nil means "leave unchanged".
type CommentPatch struct {
	Content   *string
	IsDeleted *bool
}

// List returns every non-deleted comment whose video the caller may view.
// Comments on missing or deleted videos are left out.
func (s *CommentService) List(ctx context.Context, caller authz.Identity) ([]CommentView, error) {
	videos, err := s.videos.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	viewable := make(map[string]string, len(videos)) // videoID → uploaderID
	for _, v := range videos {
		if !v.IsDeleted && authz.CanView(v.Visibility, v.UploaderID, caller) {
			viewable[v.ID] = v.UploaderID
		}
	}

	all, err := s.comments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	out := make([]CommentView, 0, len(all))
	for _, c := range all {
		uploader, ok := viewable[c.VideoID]
		if c.IsDeleted || !ok {
			continue
		}
		out = append(out, viewOf(c, uploader))
	}
	sortByCreated(out, func(c CommentView) time.Time { return c.CreatedAt })
	return out, nil
}

// Get returns one non-deleted comment on a video the caller may view.
func (s *CommentService) Get(ctx context.Context, caller authz.Identity, commentID string) (*CommentView, error) {
	c, err := s.live(ctx, commentID)
	if err != nil {
		return nil, err
	}
	v, err := s.viewableVideo(ctx, caller, c.VideoID)
	if err != nil {
		return nil, err
	}
	view := viewOf(*c, v.UploaderID)
	return &view, nil
}

// ByVideo lists a video's comments oldest first.
func (s *CommentService) ByVideo(ctx context.Context, caller authz.Identity, videoID string, includeDeleted bool) ([]CommentView, error) {
	v, err := s.viewableVideo(ctx, caller, videoID)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, v.UploaderID, includeDeleted, func(c model.Comment) bool {
		return c.VideoID == videoID
	})
}

// Replies lists the direct replies to a comment oldest first. The parent
// itself may be soft-deleted; its thread stays readable.
func (s *CommentService) Replies(ctx context.Context, caller authz.Identity, parentID string, includeDeleted bool) ([]CommentView, error) {
	parent, err := s.comments.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	v, err := s.viewableVideo(ctx, caller, parent.VideoID)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, v.UploaderID, includeDeleted, func(c model.Comment) bool {
		return c.ParentID == parentID
	})
}

func (s *CommentService) collect(ctx context.Context, uploaderID string, includeDeleted bool, match func(model.Comment) bool) ([]CommentView, error) {
	all, err := s.comments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	out := make([]CommentView, 0)
	for _, c := range all {
		if !match(c) || (c.IsDeleted && !includeDeleted) {
			continue
		}
		out = append(out, viewOf(c, uploaderID))
	}
	sortByCreated(out, func(c CommentView) time.Time { return c.CreatedAt })
	return out, nil
}

// Create posts a comment, or a reply when ParentID is set, and reconciles
// the video's commentCount.
func (s *CommentService) Create(ctx context.Context, caller authz.Identity, in CommentInput) (*CommentView, error) {
	userID := ownerOrCaller(in.UserID, caller)
	if err := authz.Require(authz.OwnerOrAdmin, userID, caller, "comment as this user"); err != nil {
		return nil, err
	}

	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		return nil, apperror.ValidationFailed("videoId", "videoId is required")
	}
	v, err := s.viewableVideo(ctx, caller, videoID)
	if err != nil {
		return nil, err
	}

	parentID := strings.TrimSpace(in.ParentID)
	if parentID != "" {
		parent, err := s.comments.Get(ctx, parentID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("parentId", "parent comment does not exist")
		}
		if err != nil {
			return nil, err
		}
		if parent.VideoID != videoID {
			return nil, apperror.ValidationFailed("parentId", "parent comment belongs to a different video")
		}
	}

	c := &model.Comment{
		ID:        model.NewID(model.PrefixComment),
		VideoID:   videoID,
		UserID:    userID,
		Content:   content,
		ParentID:  parentID,
		CreatedAt: now(),
	}
	if err := s.comments.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	if err := s.counters.Comments(ctx, videoID); err != nil {
		return nil, fmt.Errorf("reconciling comment count: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("id", c.ID),
		slog.String("videoID", videoID),
		slog.Bool("reply", parentID != ""),
	)
	view := viewOf(*c, v.UploaderID)
	return &view, nil
}

// Replace swaps the content. The count is unaffected.
func (s *CommentService) Replace(ctx context.Context, caller authz.Identity, commentID, content string) (*model.Comment, error) {
	c, err := s.live(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, c.UserID, caller, "edit this comment"); err != nil {
		return nil, err
	}

	c.Content, err = validateContent(content)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = stamp()

	if err := s.comments.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("replacing comment %s: %w", c.ID, err)
	}
	return c, nil
}

// Patch edits content and/or the soft-delete flag. Touching the flag
// reconciles the count; restoring a deleted comment is allowed.
func (s *CommentService) Patch(ctx context.Context, caller authz.Identity, commentID string, p CommentPatch) (*model.Comment, error) {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, c.UserID, caller, "edit this comment"); err != nil {
		return nil, err
	}

	if p.Content != nil {
		c.Content, err = validateContent(*p.Content)
		if err != nil {
			return nil, err
		}
	}
	if p.IsDeleted != nil {
		c.IsDeleted = *p.IsDeleted
	}
	c.UpdatedAt = stamp()

	if err := s.comments.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("patching comment %s: %w", c.ID, err)
	}
	if p.IsDeleted != nil {
		if err := s.counters.Comments(ctx, c.VideoID); err != nil {
			return nil, fmt.Errorf("reconciling comment count: %w", err)
		}
	}
	return c, nil
}

// Delete soft-deletes the comment, or removes the record when purge is
// set. Either way the count is reconciled. Replies to a purged comment keep
// their dangling parentId.
func (s *CommentService) Delete(ctx context.Context, caller authz.Identity, commentID string, purge bool) error {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.OwnerOrAdmin, c.UserID, caller, "delete this comment"); err != nil {
		return err
	}

	if purge {
		err = s.comments.Delete(ctx, c.ID)
	} else {
		c.IsDeleted = true
		c.UpdatedAt = stamp()
		err = s.comments.Put(ctx, c)
	}
	if err != nil {
		return fmt.Errorf("deleting comment %s: %w", c.ID, err)
	}

	if err := s.counters.Comments(ctx, c.VideoID); err != nil {
		return fmt.Errorf("reconciling comment count: %w", err)
	}

	s.logger.Info("comment deleted",
		slog.String("id", c.ID),
		slog.Bool("purged", purge),
		slog.String("by", caller.SubjectID),
	)
	return nil
}

func (s *CommentService) live(ctx context.Context, commentID string) (*model.Comment, error) {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, apperror.NotFound("comment", commentID)
	}
	return c, nil
}

// viewableVideo loads a non-deleted video and checks the caller may see it.
func (s *CommentService) viewableVideo(ctx context.Context, caller authz.Identity, videoID string) (*model.Video, error) {
	v, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.IsDeleted {
		return nil, apperror.NotFound("video", videoID)
	}
	if err := authz.RequireView(v.Visibility, v.UploaderID, caller, "video"); err != nil {
		return nil, err
	}
	return v, nil
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxCommentLength {
		return "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxCommentLength))
	}
	return content, nil
}
