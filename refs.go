// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"io"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// A RefSet maps full ref names (e.g. "refs/heads/main") to object ids.
type RefSet map[string]plumbing.Hash

// A RefUpdate asks the remote to move one ref from Old to New. A zero Old
// creates the ref, a zero New deletes it. The server rejects the update if
// the ref no longer holds Old.
type RefUpdate struct {
	Name string
	Old  plumbing.Hash
	New  plumbing.Hash
}

// A DetermineRefsFunc decides, given the remote's advertised refs, which
// updates to request. It is caller-supplied policy; the push engine computes
// nothing itself.
type DetermineRefsFunc func(remoteRefs RefSet) ([]RefUpdate, error)

// A PackGenerator produces the pack stream for a push: everything reachable
// from want that the remote, holding have, is missing.
type PackGenerator func(have, want []plumbing.Hash) (io.Reader, error)

// A LocalRepository is the object-store surface a fetch writes into. The
// fetch engine never touches ref storage; apply the returned RefSet through
// a RefStore yourself.
type LocalRepository interface {
	HasObject(id plumbing.Hash) (bool, error)
	ReachableObjects() ([]plumbing.Hash, error)
	AddPackfile(r io.Reader) error
}

// A RefStore applies ref updates with compare-and-swap semantics. A nil old
// value updates unconditionally; a zero old value requires the ref to not
// exist.
type RefStore interface {
	Refs() map[string]plumbing.Hash
	SetIfEquals(name string, old *plumbing.Hash, newID plumbing.Hash) bool
}

// ReplaceRefs returns a push policy that sets every ref listed in desired to
// the given id, creating refs the remote is missing and leaving unlisted
// refs untouched. Refs already at their desired value are skipped.
func ReplaceRefs(desired RefSet) DetermineRefsFunc {
	return func(remoteRefs RefSet) ([]RefUpdate, error) {
		names := make([]string, 0, len(desired))
		for name := range desired {
			names = append(names, name)
		}
		sort.Strings(names)
		var updates []RefUpdate
		for _, name := range names {
			old := remoteRefs[name] // zero when absent
			if old == desired[name] {
				continue
			}
			updates = append(updates, RefUpdate{Name: name, Old: old, New: desired[name]})
		}
		return updates, nil
	}
}

// ApplyRefs applies every (name, id) pair in refs to store with an
// unconditional compare-and-swap, the usual follow-up to a fetch.
func ApplyRefs(store RefStore, refs RefSet) {
	for name, id := range refs {
		store.SetIfEquals(name, nil, id)
	}
}
