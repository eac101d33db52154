package model

import "time"

// Comment is a message on a video. ParentID is empty for a top-level
// comment and otherwise names another comment on the same video.
type Comment struct {
	ID        string     `json:"id"`
	VideoID   string     `json:"videoId"`
	UserID    string     `json:"userId"`
	Content   string     `json:"content"`
	ParentID  string     `json:"parentId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	IsDeleted bool       `json:"isDeleted"`
}

func (c Comment) RecordID() string { return c.ID }

// Live reports whether the comment counts towards its video's commentCount.
func (c Comment) Live() bool { return !c.IsDeleted }
