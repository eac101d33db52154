package model

import (
	"strings"
	"time"

	"github.com/sakif/openlecture/internal/authz"
)

// User is a registered account.
//
// NormalizedEmail is the lookup key for login and the uniqueness check:
// no two non-deleted users may share it. PasswordHash is empty for accounts
// created through GitHub login or by an admin without a password; such
// accounts cannot use password login.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	NormalizedEmail   string     `json:"normalizedEmail"`
	FullName          string     `json:"fullName"`
	Role              authz.Role `json:"role"`
	PasswordHash      string     `json:"passwordHash,omitempty"`
	PasswordUpdatedAt *time.Time `json:"passwordUpdatedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	IsDeleted         bool       `json:"isDeleted"`
}

func (u User) RecordID() string { return u.ID }

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
