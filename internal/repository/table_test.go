package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/model"
	"github.com/sakif/openlecture/internal/repository"
	"github.com/sakif/openlecture/internal/repository/memory"
)

// badPlaylist declares a set attribute but forgets omitempty, which is the
// mistake the empty-set guard exists for.
type badPlaylist struct {
	ID       string   `json:"id"`
	VideoIDs []string `json:"videoIds"`
}

func (p badPlaylist) RecordID() string        { return p.ID }
func (p badPlaylist) SetAttributes() []string { return []string{"videoIds"} }

// failingBackend fails every call, standing in for an unreachable store.
type failingBackend struct{ err error }

func (f failingBackend) List(context.Context, repository.Kind) ([][]byte, error) {
	return nil, f.err
}
func (f failingBackend) Get(context.Context, repository.Kind, string) ([]byte, error) {
	return nil, f.err
}
func (f failingBackend) Put(context.Context, repository.Kind, string, []byte) error { return f.err }
func (f failingBackend) Delete(context.Context, repository.Kind, string) error      { return f.err }
func (f failingBackend) Close() error                                               { return nil }

func TestTable_PutGet(t *testing.T) {
	ctx := context.Background()
	videos := repository.NewTable[model.Video](memory.New(), repository.Videos)

	v := &model.Video{ID: "v_1", UploaderID: "u_alice", Title: "Intro", Visibility: "Public", Tags: []string{"jwt"}}
	require.NoError(t, videos.Put(ctx, v))

	got, err := videos.Get(ctx, "v_1")
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Title)
	assert.Equal(t, []string{"jwt"}, got.Tags)
}

func TestTable_GetMissingIsNotFound(t *testing.T) {
	videos := repository.NewTable[model.Video](memory.New(), repository.Videos)

	_, err := videos.Get(context.Background(), "v_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "video not found with id v_missing", err.Error())
}

func TestTable_PutIsUpsert(t *testing.T) {
	ctx := context.Background()
	videos := repository.NewTable[model.Video](memory.New(), repository.Videos)

	require.NoError(t, videos.Put(ctx, &model.Video{ID: "v_1", Title: "first"}))
	require.NoError(t, videos.Put(ctx, &model.Video{ID: "v_1", Title: "second"}))

	all, err := videos.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "second", all[0].Title)
}

func TestTable_ListAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	comments := repository.NewTable[model.Comment](memory.New(), repository.Comments)

	for _, id := range []string{"c_3", "c_1", "c_2"} {
		require.NoError(t, comments.Put(ctx, &model.Comment{ID: id}))
	}

	all, err := comments.ListAll(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c_3", "c_1", "c_2"}, ids)
}

func TestTable_DeleteMissingIsNotAnError(t *testing.T) {
	reactions := repository.NewTable[model.Reaction](memory.New(), repository.Reactions)
	assert.NoError(t, reactions.Delete(context.Background(), "v1|bob"))
}

func TestTable_PutWithoutIDFails(t *testing.T) {
	videos := repository.NewTable[model.Video](memory.New(), repository.Videos)
	assert.Error(t, videos.Put(context.Background(), &model.Video{}))
}

func TestTable_RejectsEmptySetAttribute(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	bad := repository.NewTable[badPlaylist](store, repository.Playlists)

	err := bad.Put(ctx, &badPlaylist{ID: "pl_1", VideoIDs: []string{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrEmptySet))

	err = bad.Put(ctx, &badPlaylist{ID: "pl_1"})
	assert.True(t, errors.Is(err, repository.ErrEmptySet), "null is as empty as []")

	_, stored := store.Raw(repository.Playlists, "pl_1")
	assert.False(t, stored, "nothing may be written on rejection")

	assert.NoError(t, bad.Put(ctx, &badPlaylist{ID: "pl_1", VideoIDs: []string{"v_1"}}))
}

func TestTable_EmptiedPlaylistOmitsAttribute(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	playlists := repository.NewTable[model.Playlist](store, repository.Playlists)

	p := &model.Playlist{ID: "pl_1", OwnerID: "u_alice"}
	p.AddVideo("v_1")
	require.NoError(t, playlists.Put(ctx, p))

	p.RemoveVideo("v_1")
	require.NoError(t, playlists.Put(ctx, p))

	raw, ok := store.Raw(repository.Playlists, "pl_1")
	require.True(t, ok)
	var attrs map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &attrs))
	assert.NotContains(t, attrs, "videoIds")

	got, err := playlists.Get(ctx, "pl_1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Videos())
}

func TestTable_BackendFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	videos := repository.NewTable[model.Video](failingBackend{err: cause}, repository.Videos)

	_, err := videos.ListAll(ctx)
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	assert.True(t, errors.Is(err, cause))

	_, err = videos.Get(ctx, "v_1")
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	assert.False(t, errors.Is(err, apperror.ErrNotFound))

	assert.True(t, errors.Is(videos.Put(ctx, &model.Video{ID: "v_1"}), apperror.ErrUnavailable))
	assert.True(t, errors.Is(videos.Delete(ctx, "v_1"), apperror.ErrUnavailable))
}

func TestKind_Resource(t *testing.T) {
	assert.Equal(t, "playlist", repository.Playlists.Resource())
	assert.Equal(t, "user", repository.Users.Resource())
}
