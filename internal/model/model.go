// Package model defines the records persisted in the record store.
//
// Every record is stored as one JSON document under its kind, keyed by the
// value RecordID returns. The JSON tags below ARE the storage encoding, so a
// renamed tag is a data migration.
//
// ID PREFIXES:
// Server-generated ids carry a kind prefix so a stray id in a log line or a
// URL is recognisable at a glance:
//
//	u_  user       v_  video
//	c_  comment    pl_ playlist
//
// Reactions are the exception: their id is derived from (videoId, userId),
// see ReactionID.
package model

import "github.com/rs/xid"

const (
	PrefixUser     = "u_"
	PrefixVideo    = "v_"
	PrefixComment  = "c_"
	PrefixPlaylist = "pl_"
)

// NewID returns prefix followed by a fresh xid, e.g. "v_cv37rs3pp9olc6atsptg".
// xids are globally unique and sort roughly by creation time.
func NewID(prefix string) string {
	return prefix + xid.New().String()
}
