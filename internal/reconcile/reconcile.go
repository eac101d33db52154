// Package reconcile keeps denormalized counters on a parent record equal to
// a count over its children.
//
// THE PROTOCOL (read, recompute, write):
//  1. reload the parent by id; if it is gone, stop (not an error)
//  2. scan ALL children of the child kind once
//  3. for every target, count children that belong to the parent and
//     match the target's predicate
//  4. write the counts onto the parent and persist it
//
// There is no increment and no lock. Two mutations racing on the same parent
// each write the snapshot they counted and the last writer wins; the next
// mutation on that parent corrects any drift. That weak consistency is the
// contract.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/openlecture/internal/apperror"
	"github.com/sakif/openlecture/internal/repository"
)

// Target is one aggregate field: which children it counts and where the
// count goes on the parent.
type Target[P, C any] struct {
	Field string
	Match func(child C) bool
	Set   func(parent *P, n int)
}

// ChildCount runs the protocol for parentID. belongs selects the parent's
// children; each target narrows that further. A missing parent is a no-op.
func ChildCount[P, C repository.Record](
	ctx context.Context,
	parents repository.Collection[P],
	children repository.Collection[C],
	parentID string,
	belongs func(child C) bool,
	targets ...Target[P, C],
) (*P, error) {
	parent, err := parents.Get(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reloading parent %s: %w", parentID, err)
	}

	all, err := children.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning children of %s: %w", parentID, err)
	}

	counts := make([]int, len(targets))
	for _, c := range all {
		if !belongs(c) {
			continue
		}
		for i, t := range targets {
			if t.Match(c) {
				counts[i]++
			}
		}
	}

	for i, t := range targets {
		t.Set(parent, counts[i])
	}

	if err := parents.Put(ctx, parent); err != nil {
		return nil, fmt.Errorf("writing counters of %s: %w", parentID, err)
	}
	return parent, nil
}
