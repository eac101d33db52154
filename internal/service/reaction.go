package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/reconcile"
	"github.com/sakif/openlecture/internal/repository"
)

// ReactionService records one Like/Dislike/None per (video, user) and keeps
// Video.likeCount and Video.dislikeCount in step.
//
// UNIQUENESS:
// The record id is model.ReactionID(videoID, userID). Every write goes
// through that derived key, so the store can never hold two reactions for
// the same pair: an upsert either finds the existing record or creates it.
type ReactionService struct {
	reactions repository.Collection[model.Reaction]
	videos    repository.Collection[model.Video]
	counters  *reconcile.Counters
	logger    *slog.Logger
}

func NewReactionService(
	reactions repository.Collection[model.Reaction],
	videos repository.Collection[model.Video],
	counters *reconcile.Counters,
	logger *slog.Logger,
) *ReactionService {
	return &ReactionService{reactions: reactions, videos: videos, counters: counters, logger: logger}
}

// ReactionInput is the upsert body. UserID defaults to the caller.
type ReactionInput struct {
	VideoID string
	UserID  string
	Type    string
}

// ReactionSummary is the like/dislike tally for one video.
type ReactionSummary struct {
	VideoID  string `json:"videoId"`
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
}

// List returns every reaction.
func (s *ReactionService) List(ctx context.Context) ([]model.Reaction, error) {
	all, err := s.reactions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reactions: %w", err)
	}
	return all, nil
}

// Get returns one reaction by its derived id.
func (s *ReactionService) Get(ctx context.Context, reactionID string) (*model.Reaction, error) {
	return s.reactions.Get(ctx, reactionID)
}

// Upsert sets the caller's reaction to a video, creating the record on
// first use, and reconciles the video's counters.
func (s *ReactionService) Upsert(ctx context.Context, caller authz.Identity, in ReactionInput) (*model.Reaction, error) {
	typ, ok := model.ParseReactionType(in.Type)
	if !ok {
		return nil, apperror.ValidationFailed("type", "type must be Like, Dislike, or None")
	}

	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		return nil, apperror.ValidationFailed("videoId", "videoId is required")
	}
	userID := ownerOrCaller(in.UserID, caller)
	if err := authz.Require(authz.OwnerOrAdmin, userID, caller, "react as this user"); err != nil {
		return nil, err
	}

	v, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.IsDeleted {
		return nil, apperror.NotFound("video", videoID)
	}

	r, err := s.reactions.Get(ctx, model.ReactionID(videoID, userID))
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		// A fresh record starts as None, then takes the requested type.
		r = &model.Reaction{
			ID:        model.ReactionID(videoID, userID),
			VideoID:   videoID,
			UserID:    userID,
			Type:      model.ReactionNone,
			CreatedAt: now(),
		}
	case err != nil:
		return nil, err
	}

	r.Type = typ
	r.UpdatedAt = now()
	if err := s.reactions.Put(ctx, r); err != nil {
		return nil, fmt.Errorf("saving reaction %s: %w", r.ID, err)
	}
	if err := s.counters.Reactions(ctx, videoID); err != nil {
		return nil, fmt.Errorf("reconciling reaction counts: %w", err)
	}

	s.logger.Info("reaction saved",
		slog.String("id", r.ID),
		slog.String("type", string(r.Type)),
	)
	return r, nil
}

// Replace is Upsert addressed by id: the body's (videoId, userId) pair must
// derive reactionID exactly.
func (s *ReactionService) Replace(ctx context.Context, caller authz.Identity, reactionID string, in ReactionInput) (*model.Reaction, error) {
	if _, ok := model.ParseReactionType(in.Type); !ok {
		return nil, apperror.ValidationFailed("type", "type must be Like, Dislike, or None")
	}
	in.UserID = ownerOrCaller(in.UserID, caller)
	if model.ReactionID(strings.TrimSpace(in.VideoID), in.UserID) != reactionID {
		return nil, apperror.ValidationFailed("id", "id does not match videoId and userId")
	}
	return s.Upsert(ctx, caller, in)
}

// Patch changes the type of an existing reaction. A nil type only bumps
// updatedAt.
func (s *ReactionService) Patch(ctx context.Context, caller authz.Identity, reactionID string, typ *string) (*model.Reaction, error) {
	r, err := s.reactions.Get(ctx, reactionID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, r.UserID, caller, "change this reaction"); err != nil {
		return nil, err
	}

	if typ != nil {
		t, ok := model.ParseReactionType(*typ)
		if !ok {
			return nil, apperror.ValidationFailed("type", "type must be Like, Dislike, or None")
		}
		r.Type = t
	}
	r.UpdatedAt = now()

	if err := s.reactions.Put(ctx, r); err != nil {
		return nil, fmt.Errorf("patching reaction %s: %w", r.ID, err)
	}
	if err := s.counters.Reactions(ctx, r.VideoID); err != nil {
		return nil, fmt.Errorf("reconciling reaction counts: %w", err)
	}
	return r, nil
}

// Delete removes the record and reconciles. Deleting a reaction that does
// not exist succeeds.
func (s *ReactionService) Delete(ctx context.Context, caller authz.Identity, reactionID string) error {
	r, err := s.reactions.Get(ctx, reactionID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := authz.Require(authz.OwnerOrAdmin, r.UserID, caller, "delete this reaction"); err != nil {
		return err
	}

	if err := s.reactions.Delete(ctx, r.ID); err != nil {
		return fmt.Errorf("deleting reaction %s: %w", r.ID, err)
	}
	if err := s.counters.Reactions(ctx, r.VideoID); err != nil {
		return fmt.Errorf("reconciling reaction counts: %w", err)
	}

	s.logger.Info("reaction deleted", slog.String("id", r.ID), slog.String("by", caller.SubjectID))
	return nil
}

// Summary tallies likes and dislikes for a video from one scan. It does not
// require the video to exist.
func (s *ReactionService) Summary(ctx context.Context, videoID string) (*ReactionSummary, error) {
	all, err := s.reactions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarising reactions: %w", err)
	}

	sum := &ReactionSummary{VideoID: videoID}
	for _, r := range all {
		if r.VideoID != videoID {
			continue
		}
		switch r.Type {
		case model.ReactionLike:
			sum.Likes++
		case model.ReactionDislike:
			sum.Dislikes++
		}
	}
	return sum, nil
}
