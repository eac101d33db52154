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

const MaxPlaylistNameLength = 100

// PlaylistService manages playlists and their video membership sets.
//
// Membership ids are not checked against the videos table: a playlist may
// reference a video that was later deleted, and readers filter as needed.
type PlaylistService struct {
	playlists repository.Collection[model.Playlist]
	logger    *slog.Logger
}

func NewPlaylistService(playlists repository.Collection[model.Playlist], logger *slog.Logger) *PlaylistService {
	return &PlaylistService{playlists: playlists, logger: logger}
}

// PlaylistInput is the create / full-replace body. OwnerID is only read
// on create and defaults to the caller.
type PlaylistInput struct {
	Name       string
	OwnerID    string
	Visibility string
	VideoIDs   []string
}

// PlaylistPatch holds optional fields; nil means "leave unchanged".
type PlaylistPatch struct {
	Name       *string
	Visibility *string
}

// List returns the non-deleted playlists the caller may view.
func (s *PlaylistService) List(ctx context.Context, caller authz.Identity) ([]model.Playlist, error) {
	return s.filter(ctx, func(p model.Playlist) bool {
		return authz.CanView(p.Visibility, p.OwnerID, caller)
	})
}

// Mine returns the caller's own non-deleted playlists, private ones included.
func (s *PlaylistService) Mine(ctx context.Context, caller authz.Identity) ([]model.Playlist, error) {
	if err := authz.Require(authz.Any, "", caller, "list your playlists"); err != nil {
		return nil, err
	}
	return s.filter(ctx, func(p model.Playlist) bool {
		return caller.Owns(p.OwnerID)
	})
}

func (s *PlaylistService) filter(ctx context.Context, keep func(model.Playlist) bool) ([]model.Playlist, error) {
	all, err := s.playlists.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	out := make([]model.Playlist, 0, len(all))
	for _, p := range all {
		if !p.IsDeleted && keep(p) {
			out = append(out, p)
		}
	}
	sortByCreated(out, func(p model.Playlist) time.Time { return p.CreatedAt })
	return out, nil
}

// Get returns one viewable, non-deleted playlist.
func (s *PlaylistService) Get(ctx context.Context, caller authz.Identity, playlistID string) (*model.Playlist, error) {
	p, err := s.live(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireView(p.Visibility, p.OwnerID, caller, "playlist"); err != nil {
		return nil, err
	}
	return p, nil
}

// Create makes a playlist. Visibility defaults to Public; duplicate video
// ids collapse and an empty list leaves the set absent.
func (s *PlaylistService) Create(ctx context.Context, caller authz.Identity, in PlaylistInput) (*model.Playlist, error) {
	ownerID := ownerOrCaller(in.OwnerID, caller)
	if err := authz.Require(authz.OwnerOrAdmin, ownerID, caller, "create playlists for this user"); err != nil {
		return nil, err
	}

	name, err := validatePlaylistName(in.Name)
	if err != nil {
		return nil, err
	}
	vis, err := parseVisibility(in.Visibility, authz.Public)
	if err != nil {
		return nil, err
	}

	p := &model.Playlist{
		ID:         model.NewID(model.PrefixPlaylist),
		Name:       name,
		OwnerID:    ownerID,
		Visibility: vis,
		VideoIDs:   stringset.New(in.VideoIDs...),
		CreatedAt:  now(),
	}
	if err := s.playlists.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	s.logger.Info("playlist created",
		slog.String("id", p.ID),
		slog.String("owner", p.OwnerID),
		slog.Int("videos", p.VideoIDs.Len()),
	)
	return p, nil
}

// Replace overwrites name, visibility and membership. An empty video list
// removes the attribute.
func (s *PlaylistService) Replace(ctx context.Context, caller authz.Identity, playlistID string, in PlaylistInput) (*model.Playlist, error) {
	p, err := s.live(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, p.OwnerID, caller, "update this playlist"); err != nil {
		return nil, err
	}

	name, err := validatePlaylistName(in.Name)
	if err != nil {
		return nil, err
	}
	vis, err := parseVisibility(in.Visibility, authz.Public)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.Visibility = vis
	p.VideoIDs = stringset.New(in.VideoIDs...)
	p.UpdatedAt = stamp()

	if err := s.playlists.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("replacing playlist %s: %w", p.ID, err)
	}
	return p, nil
}

// Patch changes name and/or visibility.
func (s *PlaylistService) Patch(ctx context.Context, caller authz.Identity, playlistID string, in PlaylistPatch) (*model.Playlist, error) {
	p, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, p.OwnerID, caller, "update this playlist"); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name, err := validatePlaylistName(*in.Name)
		if err != nil {
			return nil, err
		}
		p.Name = name
	}
	if in.Visibility != nil {
		vis, ok := authz.ParseVisibility(*in.Visibility)
		if !ok {
			return nil, apperror.ValidationFailed("visibility", "visibility must be Public or Private")
		}
		p.Visibility = vis
	}
	p.UpdatedAt = stamp()

	if err := s.playlists.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("patching playlist %s: %w", p.ID, err)
	}
	return p, nil
}

// Delete soft-deletes the playlist.
func (s *PlaylistService) Delete(ctx context.Context, caller authz.Identity, playlistID string) error {
	p, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.OwnerOrAdmin, p.OwnerID, caller, "delete this playlist"); err != nil {
		return err
	}

	p.IsDeleted = true
	p.UpdatedAt = stamp()
	if err := s.playlists.Put(ctx, p); err != nil {
		return fmt.Errorf("deleting playlist %s: %w", p.ID, err)
	}
	return nil
}

// AddVideo inserts videoID into the set. A case variant of an existing
// member is a no-op and nothing is written.
func (s *PlaylistService) AddVideo(ctx context.Context, caller authz.Identity, playlistID, videoID string) (*model.Playlist, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, apperror.ValidationFailed("videoId", "videoId is required")
	}

	p, err := s.live(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, p.OwnerID, caller, "change this playlist"); err != nil {
		return nil, err
	}

	if !p.AddVideo(videoID) {
		return p, nil
	}
	p.UpdatedAt = stamp()
	if err := s.playlists.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("adding video to playlist %s: %w", p.ID, err)
	}
	return p, nil
}

// RemoveVideo deletes every case-insensitive match of videoID. Removing a
// non-member succeeds without a write; removing the last member drops the
// attribute from the stored record.
func (s *PlaylistService) RemoveVideo(ctx context.Context, caller authz.Identity, playlistID, videoID string) (*model.Playlist, error) {
	p, err := s.live(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.OwnerOrAdmin, p.OwnerID, caller, "change this playlist"); err != nil {
		return nil, err
	}

	if !p.RemoveVideo(videoID) {
		return p, nil
	}
	p.UpdatedAt = stamp()
	if err := s.playlists.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("removing video from playlist %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *PlaylistService) live(ctx context.Context, playlistID string) (*model.Playlist, error) {
	p, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, apperror.NotFound("playlist", playlistID)
	}
	return p, nil
}

func validatePlaylistName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxPlaylistNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxPlaylistNameLength))
	}
	return name, nil
}
