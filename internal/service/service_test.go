package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/reconcile"
	"github.com/sakif/openlecture/internal/repository"
	"github.com/sakif/openlecture/internal/repository/memory"
)

// =========================================================================
// FIXTURE
// =========================================================================
//
// Every test gets a fresh in-memory store with all five tables and every
// service wired the way server.go wires them. No mocks of the storage port:
// the memory backend is the real Backend contract, just without a disk.

var (
	alice = authz.Identity{SubjectID: "u_alice", Role: authz.RoleStudent, DisplayName: "Alice"}
	bob   = authz.Identity{SubjectID: "u_bob", Role: authz.RoleStudent, DisplayName: "Bob"}
	admin = authz.Identity{SubjectID: "u_admin", Role: authz.RoleAdmin, DisplayName: "Admin"}
	anon  = authz.Anonymous()
)

type env struct {
	store *memory.Store

	users     *repository.Table[model.User]
	videos    *repository.Table[model.Video]
	comments  *repository.Table[model.Comment]
	reactions *repository.Table[model.Reaction]
	playlists *repository.Table[model.Playlist]

	presigner *fakePresigner
	tokens    *auth.TokenService

	userSvc     *UserService
	authSvc     *AuthService
	videoSvc    *VideoService
	uploadSvc   *UploadService
	commentSvc  *CommentService
	reactionSvc *ReactionService
	playlistSvc *PlaylistService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store := memory.New()
	e := &env{
		store:     store,
		users:     repository.NewTable[model.User](store, repository.Users),
		videos:    repository.NewTable[model.Video](store, repository.Videos),
		comments:  repository.NewTable[model.Comment](store, repository.Comments),
		reactions: repository.NewTable[model.Reaction](store, repository.Reactions),
		playlists: repository.NewTable[model.Playlist](store, repository.Playlists),
		presigner: &fakePresigner{},
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   "test-secret-at-least-16-chars!!",
		Issuer:   "openlecture",
		Audience: "openlecture-clients",
	})
	require.NoError(t, err)
	e.tokens = tokens

	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	counters := reconcile.NewCounters(e.videos, e.comments, e.reactions, logger)

	e.userSvc = NewUserService(e.users, passwords, logger)
	e.authSvc = NewAuthService(e.userSvc, e.users, tokens, passwords, logger)
	e.videoSvc = NewVideoService(e.videos, e.presigner, 0, logger)
	e.uploadSvc = NewUploadService(e.presigner, "lectures", 0, logger)
	e.commentSvc = NewCommentService(e.comments, e.videos, counters, logger)
	e.reactionSvc = NewReactionService(e.reactions, e.videos, counters, logger)
	e.playlistSvc = NewPlaylistService(e.playlists, logger)
	return e
}

// video stores a video directly, bypassing the service.
func (e *env) video(t *testing.T, id, uploader string, vis authz.Visibility) *model.Video {
	t.Helper()
	v := &model.Video{
		ID:          id,
		UploaderID:  uploader,
		Title:       "Lecture " + id,
		Subject:     model.DefaultSubject,
		Visibility:  vis,
		S3Bucket:    "lectures",
		S3Key:       "videos/" + uploader + "/" + id + ".mp4",
		ContentType: "video/mp4",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, e.videos.Put(context.Background(), v))
	return v
}

func (e *env) reload(t *testing.T, videoID string) *model.Video {
	t.Helper()
	v, err := e.videos.Get(context.Background(), videoID)
	require.NoError(t, err)
	return v
}

// fakePresigner records calls and returns deterministic URLs.
type fakePresigner struct {
	err      error
	lastTTL  time.Duration
	lastType string
}

func (f *fakePresigner) PresignPut(_ context.Context, bucket, key, contentType string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastTTL, f.lastType = ttl, contentType
	return fmt.Sprintf("https://s3.test/%s/%s?put", bucket, key), nil
}

func (f *fakePresigner) PresignGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastTTL = ttl
	return fmt.Sprintf("https://s3.test/%s/%s?get", bucket, key), nil
}

func assertIs(t *testing.T, err, target error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, target), "error = %v, want %v", err, target)
}

func ptr[T any](v T) *T { return &v }

// =========================================================================
// HELPERS
// =========================================================================

func TestSortByCreated_Stable(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []model.Comment{
		{ID: "late", CreatedAt: base.Add(time.Hour)},
		{ID: "tie-a", CreatedAt: base},
		{ID: "tie-b", CreatedAt: base},
	}
	sortByCreated(items, func(c model.Comment) time.Time { return c.CreatedAt })

	ids := []string{items[0].ID, items[1].ID, items[2].ID}
	assert.Equal(t, []string{"tie-a", "tie-b", "late"}, ids)
}

func TestParseVisibility_DefaultAndCanonical(t *testing.T) {
	v, err := parseVisibility("", authz.Public)
	require.NoError(t, err)
	assert.Equal(t, authz.Public, v)

	v, err = parseVisibility("pRiVaTe", authz.Public)
	require.NoError(t, err)
	assert.Equal(t, authz.Private, v, "stored in canonical case")

	_, err = parseVisibility("hidden", authz.Public)
	assertIs(t, err, apperror.ErrValidation)
}
