package reconcile

import (
	"context"
	"log/slog"

	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/repository"
)

// Counters maintains the aggregate fields on videos.
type Counters struct {
	videos    repository.Collection[model.Video]
	comments  repository.Collection[model.Comment]
	reactions repository.Collection[model.Reaction]
	logger    *slog.Logger
}

func NewCounters(
	videos repository.Collection[model.Video],
	comments repository.Collection[model.Comment],
	reactions repository.Collection[model.Reaction],
	logger *slog.Logger,
) *Counters {
	return &Counters{videos: videos, comments: comments, reactions: reactions, logger: logger}
}

// Comments sets video.commentCount to the number of its non-deleted comments.
func (c *Counters) Comments(ctx context.Context, videoID string) error {
	v, err := ChildCount(ctx, c.videos, c.comments, videoID,
		func(cm model.Comment) bool { return cm.VideoID == videoID },
		Target[model.Video, model.Comment]{
			Field: "commentCount",
			Match: model.Comment.Live,
			Set:   func(v *model.Video, n int) { v.CommentCount = n },
		},
	)
	if err != nil {
		return err
	}
	c.logReconciled(videoID, v, "comments")
	return nil
}

// Reactions sets video.likeCount and video.dislikeCount from one scan.
func (c *Counters) Reactions(ctx context.Context, videoID string) error {
	v, err := ChildCount(ctx, c.videos, c.reactions, videoID,
		func(r model.Reaction) bool { return r.VideoID == videoID },
		Target[model.Video, model.Reaction]{
			Field: "likeCount",
			Match: func(r model.Reaction) bool { return r.Type == model.ReactionLike },
			Set:   func(v *model.Video, n int) { v.LikeCount = n },
		},
		Target[model.Video, model.Reaction]{
			Field: "dislikeCount",
			Match: func(r model.Reaction) bool { return r.Type == model.ReactionDislike },
			Set:   func(v *model.Video, n int) { v.DislikeCount = n },
		},
	)
	if err != nil {
		return err
	}
	c.logReconciled(videoID, v, "reactions")
	return nil
}

func (c *Counters) logReconciled(videoID string, v *model.Video, source string) {
	if v == nil {
		c.logger.Debug("counter reconciliation skipped: video gone",
			slog.String("videoID", videoID),
			slog.String("source", source),
		)
		return
	}
	c.logger.Debug("counters reconciled",
		slog.String("videoID", videoID),
		slog.String("source", source),
		slog.Int("commentCount", v.CommentCount),
		slog.Int("likeCount", v.LikeCount),
		slog.Int("dislikeCount", v.DislikeCount),
	)
}
