package model

import (
	"time"

	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/stringset"
)

// Playlist is a user-curated set of videos.
//
// VideoIDs is nil when the playlist is empty. The omitempty tag then drops
// the attribute from the stored document altogether; it is never written
// as an empty array. Use Videos to read it.
type Playlist struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	OwnerID    string           `json:"ownerId"`
	Visibility authz.Visibility `json:"visibility"`
	VideoIDs   stringset.Set    `json:"videoIds,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
	IsDeleted  bool             `json:"isDeleted"`
}

func (p Playlist) RecordID() string { return p.ID }

// SetAttributes names the set-typed attributes the store must never see empty.
func (p Playlist) SetAttributes() []string { return []string{"videoIds"} }

// AddVideo inserts videoID into the membership set. It reports whether the
// set changed; a case variant of an existing member does not change it.
func (p *Playlist) AddVideo(videoID string) bool {
	var changed bool
	p.VideoIDs, changed = p.VideoIDs.Add(videoID)
	return changed
}

// RemoveVideo removes videoID, ignoring case. Removing the last member
// leaves VideoIDs nil so the attribute disappears on the next write.
func (p *Playlist) RemoveVideo(videoID string) bool {
	var changed bool
	p.VideoIDs, changed = p.VideoIDs.Remove(videoID)
	return changed
}

// Videos returns the members; an absent set reads as an empty list.
func (p Playlist) Videos() []string {
	return p.VideoIDs.List()
}
