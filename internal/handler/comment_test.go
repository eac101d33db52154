package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/model"
)

type commentBody struct {
	ID           string `json:"id"`
	VideoID      string `json:"videoId"`
	UserID       string `json:"userId"`
	Content      string `json:"content"`
	ParentID     string `json:"parentId"`
	IsDeleted    bool   `json:"isDeleted"`
	IsOwnerReply bool   `json:"isOwnerReply"`
}

// comment posts content on videoID as caller and returns the new id.
func (e *env) comment(t *testing.T, caller authz.Identity, videoID, content, parentID string) string {
	t.Helper()
	rr := e.do(t, caller, http.MethodPost, "/api/comments",
		`{"videoId":"`+videoID+`","content":"`+content+`","parentId":"`+parentID+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[commentBody](t, rr).ID
}

func commentCount(t *testing.T, e *env, videoID string) int {
	t.Helper()
	rr := e.do(t, admin, http.MethodGet, "/api/videos/"+videoID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	return decode[model.Video](t, rr).CommentCount
}

func TestComments_CreateFlagsOwnerReply(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)

	rr := e.do(t, alice, http.MethodPost, "/api/comments", `{"videoId":"v_1","content":"  welcome  "}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	c := decode[commentBody](t, rr)
	assert.Equal(t, "welcome", c.Content)
	assert.True(t, c.IsOwnerReply)
	assert.Equal(t, 1, commentCount(t, e, "v_1"))
}

func TestComments_CreateRejections(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)
	e.video(t, "v_2", alice.SubjectID, authz.Public)
	e.video(t, "v_priv", alice.SubjectID, authz.Private)
	other := e.comment(t, bob, "v_2", "elsewhere", "")

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"empty content", `{"videoId":"v_1","content":"   "}`, http.StatusBadRequest, "content"},
		{"missing video", `{"videoId":"v_nope","content":"hi"}`, http.StatusNotFound, ""},
		{"private video", `{"videoId":"v_priv","content":"hi"}`, http.StatusForbidden, ""},
		{"unknown parent", `{"videoId":"v_1","content":"hi","parentId":"c_nope"}`, http.StatusBadRequest, "parentId"},
		{"parent on other video", `{"videoId":"v_1","content":"hi","parentId":"` + other + `"}`, http.StatusBadRequest, "parentId"},
		{"as someone else", `{"videoId":"v_1","content":"hi","userId":"u_alice"}`, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, bob, http.MethodPost, "/api/comments", tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[map[string]any](t, rr)["field"])
			}
		})
	}
}

func TestComments_SoftDeleteAndPurge(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)
	soft := e.comment(t, bob, "v_1", "first", "")
	hard := e.comment(t, bob, "v_1", "second", "")
	require.Equal(t, 2, commentCount(t, e, "v_1"))

	require.Equal(t, http.StatusNoContent, e.do(t, bob, http.MethodDelete, "/api/comments/"+soft, "").Code)
	require.Equal(t, http.StatusNoContent, e.do(t, bob, http.MethodDelete, "/api/comments/"+hard+"?purge=true", "").Code)
	assert.Equal(t, 0, commentCount(t, e, "v_1"))

	assertError(t, e.do(t, bob, http.MethodGet, "/api/comments/"+soft, ""), http.StatusNotFound, "not_found", "")

	rr := e.do(t, bob, http.MethodGet, "/api/comments/videos/v_1?includeDeleted=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[[]commentBody](t, rr)
	require.Len(t, all, 1, "the purged record is gone, the soft-deleted one remains")
	assert.Equal(t, soft, all[0].ID)
	assert.True(t, all[0].IsDeleted)

	rr = e.do(t, bob, http.MethodGet, "/api/comments/videos/v_1", "")
	assert.Empty(t, decode[[]commentBody](t, rr))
}

func TestComments_OnlyAuthorMayEdit(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)
	id := e.comment(t, bob, "v_1", "draft", "")

	assertError(t, e.do(t, alice, http.MethodPut, "/api/comments/"+id, `{"content":"hijack"}`), http.StatusForbidden, "forbidden", "")
	require.Equal(t, http.StatusNoContent, e.do(t, bob, http.MethodPut, "/api/comments/"+id, `{"content":"final"}`).Code)

	c := decode[commentBody](t, e.do(t, anon, http.MethodGet, "/api/comments/"+id, ""))
	assert.Equal(t, "final", c.Content)
}

func TestComments_PatchRestoreRecounts(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)
	id := e.comment(t, bob, "v_1", "hi", "")

	require.Equal(t, http.StatusNoContent, e.do(t, bob, http.MethodPatch, "/api/comments/"+id, `{"isDeleted":true}`).Code)
	assert.Equal(t, 0, commentCount(t, e, "v_1"))

	require.Equal(t, http.StatusNoContent, e.do(t, bob, http.MethodPatch, "/api/comments/"+id, `{"isDeleted":false}`).Code)
	assert.Equal(t, 1, commentCount(t, e, "v_1"))
}

func TestComments_Replies(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_1", alice.SubjectID, authz.Public)
	root := e.comment(t, bob, "v_1", "question", "")
	e.comment(t, alice, "v_1", "answer", root)
	e.comment(t, bob, "v_1", "unrelated", "")

	rr := e.do(t, anon, http.MethodGet, "/api/comments/parents/"+root+"/replies", "")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	replies := decode[[]commentBody](t, rr)
	require.Len(t, replies, 1)
	assert.Equal(t, "answer", replies[0].Content)
	assert.True(t, replies[0].IsOwnerReply)
}

func TestComments_ListHidesPrivateVideos(t *testing.T) {
	e := newEnv(t)
	e.video(t, "v_pub", alice.SubjectID, authz.Public)
	e.video(t, "v_priv", alice.SubjectID, authz.Private)
	e.comment(t, alice, "v_pub", "public", "")
	e.comment(t, alice, "v_priv", "private", "")

	assert.Len(t, decode[[]commentBody](t, e.do(t, bob, http.MethodGet, "/api/comments", "")), 1)
	assert.Len(t, decode[[]commentBody](t, e.do(t, alice, http.MethodGet, "/api/comments", "")), 2)
}
