package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Prefix(t *testing.T) {
	a := NewID(PrefixVideo)
	b := NewID(PrefixVideo)

	assert.True(t, strings.HasPrefix(a, "v_"), "got %q", a)
	assert.NotEqual(t, a, b)
}

func TestReactionID(t *testing.T) {
	assert.Equal(t, "v1|bob", ReactionID("v1", "bob"))
	assert.Equal(t, ReactionID("v1", "bob"), ReactionID("v1", "bob"), "must be deterministic")
	assert.NotEqual(t, ReactionID("v1", "bob"), ReactionID("v1", "alice"))
}

func TestParseReactionType(t *testing.T) {
	tests := []struct {
		in     string
		want   ReactionType
		wantOK bool
	}{
		{"Like", ReactionLike, true},
		{"like", ReactionLike, true},
		{"DISLIKE", ReactionDislike, true},
		{"none", ReactionNone, true},
		{"love", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseReactionType(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseReactionType(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseReactionType(%q)", tt.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestPlaylist_RemoveLastVideoDropsAttribute(t *testing.T) {
	p := Playlist{ID: "pl_1", Name: "COMP306", OwnerID: "u_alice", Visibility: "Public"}

	assert.True(t, p.AddVideo("v_1"))
	assert.False(t, p.AddVideo("V_1"), "case variant must not grow the set")
	assert.Len(t, p.Videos(), 1)

	assert.True(t, p.RemoveVideo("v_1"))
	assert.Nil(t, p.VideoIDs)
	assert.Equal(t, []string{}, p.Videos())

	doc, err := json.Marshal(p)
	require.NoError(t, err)

	var attrs map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &attrs))
	_, present := attrs["videoIds"]
	assert.False(t, present, "videoIds must be absent, got %s", doc)
}

func TestPlaylist_RemoveNonMemberIsNoop(t *testing.T) {
	p := Playlist{ID: "pl_1"}
	p.AddVideo("v_1")

	assert.False(t, p.RemoveVideo("v_2"))
	assert.Equal(t, []string{"v_1"}, p.Videos())
}
