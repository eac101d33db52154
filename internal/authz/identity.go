// Package authz holds the caller identity and the single ownership/role policy
// that every resource service evaluates before reading or mutating a record.
//
// Nothing in this package touches HTTP, tokens, or storage. The auth
// middleware derives an Identity from the bearer token once per request; the
// handler hands it to the service explicitly; the service asks Decide or
// CanView. Keeping the decision a pure function means the same table of cases
// holds for users, videos, comments, reactions and playlists.
package authz

import "strings"

// Role is the caller's role claim.
type Role string

const (
	RoleNone    Role = ""
	RoleStudent Role = "Student"
	RoleAdmin   Role = "Admin"
)

// ParseRole accepts a role name in any letter case and returns its canonical
// form. Unknown names return ok=false.
func ParseRole(s string) (Role, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(RoleStudent)):
		return RoleStudent, true
	case strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)):
		return RoleAdmin, true
	default:
		return RoleNone, false
	}
}

// Identity is the verified caller of one request.
//
// The zero value is the anonymous caller: no subject, no role.
type Identity struct {
	SubjectID   string
	Role        Role
	DisplayName string
	Email       string
}

// Anonymous returns the identity used when no valid credential was presented.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated reports whether any identity is present.
func (id Identity) Authenticated() bool {
	return id.SubjectID != "" || id.Role != RoleNone
}

// IsAdmin reports whether the caller holds the Admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// Owns reports whether the caller's subject equals ownerID.
// An anonymous caller owns nothing, even a record with an empty owner field.
func (id Identity) Owns(ownerID string) bool {
	return id.SubjectID != "" && id.SubjectID == ownerID
}
