// Package service contains the business rules of the API.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, authorizes, orchestrates
//	Repository (data layer)  → reads/writes records in the store
//
// Every exported method takes the caller's authz.Identity as an explicit
// argument. Services never look the caller up on their own; the handler
// gets it from the auth middleware and passes it in. That keeps the policy
// testable with plain Go calls: build an Identity, call the method, check
// the error.
//
// MUTATION SHAPE:
// Every mutating operation follows the same steps:
//
//  1. load the target record (NotFound if missing)
//  2. authz.Require(OwnerOrAdmin, <owner field>, caller)
//  3. apply and validate the change
//  4. Put the whole record back
//  5. reconcile parent counters where the record feeds one
//
// There are no locks and no transactions: two concurrent writers to the
// same record are last-write-wins, and counters converge on the next
// reconciliation.
package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/authz"
)

// Presigner issues time-limited URLs against object storage.
// storage.S3Presigner is the production implementation.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// now is the clock used for createdAt/updatedAt. Tests may replace it.
var now = func() time.Time {
	return time.Now().UTC()
}

// stamp returns a pointer to the current time, for updatedAt fields.
func stamp() *time.Time {
	t := now()
	return &t
}

// parseVisibility validates an optional visibility input. An empty input
// yields def.
func parseVisibility(raw string, def authz.Visibility) (authz.Visibility, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, ok := authz.ParseVisibility(raw)
	if !ok {
		return "", apperror.ValidationFailed("visibility", "visibility must be Public or Private")
	}
	return v, nil
}

// ownerOrCaller returns the trimmed owner field from a request body, or the
// caller's own id when the body left it out.
func ownerOrCaller(requested string, caller authz.Identity) string {
	if s := strings.TrimSpace(requested); s != "" {
		return s
	}
	return caller.SubjectID
}

// sortByCreated orders records oldest first. The sort is stable so records
// created in the same instant keep the store's order.
func sortByCreated[T any](items []T, created func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return created(a).Compare(created(b))
	})
}
