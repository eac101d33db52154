package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
)

func lecture(title string) VideoInput {
	return VideoInput{
		Title:       title,
		S3Bucket:    "lectures",
		S3Key:       "videos/u_alice/2025/01/vid_x.mp4",
		ContentType: "video/mp4",
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestVideoCreate_Defaults(t *testing.T) {
	e := newEnv(t)

	v, err := e.videoSvc.Create(context.Background(), alice, VideoInput{
		Title:       "  Intro to Graphs  ",
		ContentType: "video/webm",
		Tags:        []string{"graphs", "Graphs", "bfs"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(v.ID, model.PrefixVideo))
	assert.Equal(t, "u_alice", v.UploaderID)
	assert.Equal(t, "Intro to Graphs", v.Title)
	assert.Equal(t, model.DefaultSubject, v.Subject)
	assert.Equal(t, authz.Public, v.Visibility)
	assert.Equal(t, []string{"graphs", "bfs"}, v.Tags)
	assert.Zero(t, v.ViewCount)
}

func TestVideoCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    VideoInput
		field string
	}{
		{"missing title", VideoInput{ContentType: "video/mp4"}, "title"},
		{"long title", VideoInput{Title: strings.Repeat("x", MaxTitleLength+1), ContentType: "video/mp4"}, "title"},
		{"not a video", VideoInput{Title: "t", ContentType: "image/png"}, "contentType"},
		{"bad visibility", VideoInput{Title: "t", ContentType: "video/mp4", Visibility: "Unlisted"}, "visibility"},
		{"negative size", VideoInput{Title: "t", ContentType: "video/mp4", SizeBytes: ptr(int64(-1))}, "sizeBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.videoSvc.Create(ctx, alice, tt.in)
			assertIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestVideoCreate_ForSomeoneElse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := lecture("Guest lecture")
	in.UploaderID = "u_bob"

	_, err := e.videoSvc.Create(ctx, alice, in)
	assertIs(t, err, apperror.ErrForbidden)

	v, err := e.videoSvc.Create(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "u_bob", v.UploaderID)

	_, err = e.videoSvc.Create(ctx, anon, lecture("x"))
	assertIs(t, err, apperror.ErrUnauthenticated)
}

// =========================================================================
// VISIBILITY
// =========================================================================

func TestVideo_PrivateVisibleOnlyToOwnerAndAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_pub", "u_alice", authz.Public)
	e.video(t, "v_priv", "u_alice", authz.Private)

	ids := func(caller authz.Identity) []string {
		vs, err := e.videoSvc.List(ctx, caller, VideoFilter{})
		require.NoError(t, err)
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}

	assert.Equal(t, []string{"v_pub"}, ids(anon))
	assert.Equal(t, []string{"v_pub"}, ids(bob))
	assert.ElementsMatch(t, []string{"v_pub", "v_priv"}, ids(alice))
	assert.ElementsMatch(t, []string{"v_pub", "v_priv"}, ids(admin))

	_, err := e.videoSvc.Get(ctx, bob, "v_priv")
	assertIs(t, err, apperror.ErrForbidden)
	_, err = e.videoSvc.Get(ctx, anon, "v_priv")
	assertIs(t, err, apperror.ErrUnauthenticated)
	_, err = e.videoSvc.Get(ctx, alice, "v_priv")
	require.NoError(t, err)
}

func TestVideoList_Filters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mk := func(in VideoInput) *model.Video {
		v, err := e.videoSvc.Create(ctx, alice, in)
		require.NoError(t, err)
		return v
	}
	graphs := mk(VideoInput{Title: "Graph search", Subject: "Computer Science", CourseCode: "COMP306",
		Tags: []string{"BFS"}, ContentType: "video/mp4"})
	calc := mk(VideoInput{Title: "Limits", Description: "Epsilon-delta proofs", Subject: "Maths",
		CourseCode: "MATH101", ContentType: "video/mp4"})

	tests := []struct {
		name string
		f    VideoFilter
		want []string
	}{
		{"subject ignores case", VideoFilter{Subject: "computer science"}, []string{graphs.ID}},
		{"course code ignores case", VideoFilter{CourseCode: "math101"}, []string{calc.ID}},
		{"any tag", VideoFilter{Tags: []string{"bfs", "dfs"}}, []string{graphs.ID}},
		{"query hits description", VideoFilter{Query: "EPSILON"}, []string{calc.ID}},
		{"uploader", VideoFilter{Uploader: "u_bob"}, []string{}},
		{"no filter", VideoFilter{}, []string{graphs.ID, calc.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := e.videoSvc.List(ctx, anon, tt.f)
			require.NoError(t, err)
			got := make([]string, 0, len(vs))
			for _, v := range vs {
				got = append(got, v.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestVideoReplace_KeepsCounters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v := e.video(t, "v_1", "u_alice", authz.Public)
	v.LikeCount, v.CommentCount = 3, 5
	require.NoError(t, e.videos.Put(ctx, v))

	got, err := e.videoSvc.Replace(ctx, alice, "v_1", lecture("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 3, got.LikeCount)
	assert.Equal(t, 5, got.CommentCount)
	assert.NotNil(t, got.UpdatedAt)

	_, err = e.videoSvc.Replace(ctx, bob, "v_1", lecture("Hijack"))
	assertIs(t, err, apperror.ErrForbidden)
}

func TestVideoDelete_SoftThenRestore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_1", "u_alice", authz.Public)

	require.NoError(t, e.videoSvc.Delete(ctx, alice, "v_1"))

	_, err := e.videoSvc.Get(ctx, alice, "v_1")
	assertIs(t, err, apperror.ErrNotFound)
	assert.True(t, e.reload(t, "v_1").IsDeleted, "record is kept")

	got, err := e.videoSvc.Patch(ctx, alice, "v_1", VideoPatch{IsDeleted: ptr(false)})
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
}

func TestVideoPatch_PartialFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_1", "u_alice", authz.Public)

	got, err := e.videoSvc.Patch(ctx, alice, "v_1", VideoPatch{
		Visibility: ptr("private"),
		Tags:       &[]string{"a", "A", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, authz.Private, got.Visibility)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, "Lecture v_1", got.Title, "untouched")
}

// =========================================================================
// PLAYBACK
// =========================================================================

func TestPlaybackURL_CountsViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_1", "u_alice", authz.Public)

	url, err := e.videoSvc.PlaybackURL(ctx, anon, "v_1")
	require.NoError(t, err)
	assert.Contains(t, url, "lectures/videos/u_alice/v_1.mp4")
	assert.Equal(t, DefaultPlaybackTTL, e.presigner.lastTTL)

	_, err = e.videoSvc.PlaybackURL(ctx, bob, "v_1")
	require.NoError(t, err)
	assert.Equal(t, 2, e.reload(t, "v_1").ViewCount)
}

func TestPlaybackURL_PrivateAndMissingObject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_priv", "u_alice", authz.Private)
	bare := e.video(t, "v_bare", "u_alice", authz.Public)
	bare.S3Key = ""
	require.NoError(t, e.videos.Put(ctx, bare))

	_, err := e.videoSvc.PlaybackURL(ctx, bob, "v_priv")
	assertIs(t, err, apperror.ErrForbidden)
	assert.Zero(t, e.reload(t, "v_priv").ViewCount)

	_, err = e.videoSvc.PlaybackURL(ctx, alice, "v_bare")
	assertIs(t, err, apperror.ErrValidation)
}

func TestPlaybackURL_StorageUnavailable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.video(t, "v_1", "u_alice", authz.Public)

	unconfigured := NewVideoService(e.videos, nil, 0, e.videoSvc.logger)
	_, err := unconfigured.PlaybackURL(ctx, alice, "v_1")
	assertIs(t, err, apperror.ErrUnavailable)

	e.presigner.err = errors.New("no credentials")
	_, err = e.videoSvc.PlaybackURL(ctx, alice, "v_1")
	assertIs(t, err, apperror.ErrUnavailable)
	assert.Zero(t, e.reload(t, "v_1").ViewCount, "failed playback does not count")
}
