package authz

import (
	"strings"

	"github.com/sakif/openlecture/internal/apperror"
)

// Requirement is the level of identity an operation demands.
type Requirement int

const (
	// None lets anyone through, anonymous callers included.
	None Requirement = iota
	// Any requires an authenticated caller of any role.
	Any
	// AdminOnly requires the Admin role.
	AdminOnly
	// OwnerOrAdmin requires the caller to own the record or be an admin.
	OwnerOrAdmin
)

func (r Requirement) String() string {
	switch r {
	case None:
		return "none"
	case Any:
		return "any"
	case AdminOnly:
		return "admin-only"
	case OwnerOrAdmin:
		return "owner-or-admin"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide.
type Decision int

const (
	Allow Decision = iota
	Forbid
	RequireAuth
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Forbid:
		return "forbid"
	case RequireAuth:
		return "require-auth"
	default:
		return "unknown"
	}
}

// Decide evaluates req against the caller.
//
// ownerID is only consulted for OwnerOrAdmin. The admin role always wins over
// ownership. A negative answer is RequireAuth for an anonymous caller and
// Forbid for an authenticated one.
//
//	Decide(OwnerOrAdmin, "u_1", Identity{SubjectID: "u_1", Role: RoleStudent}) == Allow
//	Decide(OwnerOrAdmin, "u_1", Identity{SubjectID: "u_2", Role: RoleStudent}) == Forbid
//	Decide(OwnerOrAdmin, "u_1", Identity{Role: RoleAdmin})                    == Allow
//	Decide(OwnerOrAdmin, "u_1", Anonymous())                                  == RequireAuth
func Decide(req Requirement, ownerID string, id Identity) Decision {
	switch req {
	case None:
		return Allow

	case Any:
		if id.Authenticated() {
			return Allow
		}
		return RequireAuth

	case AdminOnly:
		if id.IsAdmin() {
			return Allow
		}
		if !id.Authenticated() {
			return RequireAuth
		}
		return Forbid

	case OwnerOrAdmin:
		if id.IsAdmin() || id.Owns(ownerID) {
			return Allow
		}
		if !id.Authenticated() {
			return RequireAuth
		}
		return Forbid
	}

	// Unknown requirement: fail closed.
	if !id.Authenticated() {
		return RequireAuth
	}
	return Forbid
}

// Require runs Decide and converts a negative decision into the matching
// application error. action names the operation for the error message.
func Require(req Requirement, ownerID string, id Identity, action string) error {
	switch Decide(req, ownerID, id) {
	case Allow:
		return nil
	case RequireAuth:
		return apperror.Unauthenticated("authentication required to " + action)
	default:
		return apperror.Forbidden("not allowed to " + action)
	}
}

// Visibility is the read scope of a video or playlist.
type Visibility string

const (
	Public  Visibility = "Public"
	Private Visibility = "Private"
)

// ParseVisibility accepts "public"/"private" in any letter case and returns
// the canonical value.
func ParseVisibility(s string) (Visibility, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(Public)):
		return Public, true
	case strings.EqualFold(strings.TrimSpace(s), string(Private)):
		return Private, true
	default:
		return "", false
	}
}

// CanView is the readability predicate for list and read endpoints:
// public records are readable by everyone, private ones by their owner and
// by admins. Soft-deleted records are filtered out before this is asked.
func CanView(visibility Visibility, ownerID string, id Identity) bool {
	if strings.EqualFold(string(visibility), string(Public)) {
		return true
	}
	return id.IsAdmin() || id.Owns(ownerID)
}

// RequireView converts a failed CanView into an error: RequireAuth for
// anonymous callers, Forbid otherwise.
func RequireView(visibility Visibility, ownerID string, id Identity, resource string) error {
	if CanView(visibility, ownerID, id) {
		return nil
	}
	if !id.Authenticated() {
		return apperror.Unauthenticated("authentication required to view this " + resource)
	}
	return apperror.Forbidden("this " + resource + " is private")
}
