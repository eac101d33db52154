package model

import (
	"strings"
	"time"
)

// ReactionType is a user's verdict on a video.
type ReactionType string

const (
	ReactionNone    ReactionType = "None"
	ReactionLike    ReactionType = "Like"
	ReactionDislike ReactionType = "Dislike"
)

// ParseReactionType matches s case-insensitively against Like, Dislike and
// None and returns the canonical spelling.
func ParseReactionType(s string) (ReactionType, bool) {
	for _, t := range []ReactionType{ReactionLike, ReactionDislike, ReactionNone} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// ReactionIDSeparator joins the two halves of a reaction id.
const ReactionIDSeparator = "|"

// ReactionID derives the one and only id a (video, user) pair may have.
// Because the id is a pure function of the pair, an upsert by this key can
// never create a second record for the same user on the same video.
func ReactionID(videoID, userID string) string {
	return videoID + ReactionIDSeparator + userID
}

// Reaction is one user's reaction to one video. Type None is a real,
// persisted state (a withdrawn reaction), distinct from "no record".
type Reaction struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"videoId"`
	UserID    string       `json:"userId"`
	Type      ReactionType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (r Reaction) RecordID() string { return r.ID }
