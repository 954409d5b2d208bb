// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/go-cmp/cmp"
)

func TestReplaceRefs(t *testing.T) {
	idA := plumbing.NewHash("1111111111111111111111111111111111111111")
	idB := plumbing.NewHash("2222222222222222222222222222222222222222")
	idC := plumbing.NewHash("3333333333333333333333333333333333333333")

	determine := ReplaceRefs(RefSet{
		"refs/heads/main":    idB, // moves from idA
		"refs/heads/feature": idC, // created
		"refs/heads/stable":  idA, // already there, skipped
	})
	updates, err := determine(RefSet{
		"refs/heads/main":   idA,
		"refs/heads/stable": idA,
		"refs/heads/extra":  idC, // not listed, left alone
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []RefUpdate{
		{Name: "refs/heads/feature", New: idC},
		{Name: "refs/heads/main", Old: idA, New: idB},
	}
	if diff := cmp.Diff(want, updates); diff != "" {
		t.Errorf("unexpected updates (-want +got):\n%s", diff)
	}
}

func TestApplyRefs(t *testing.T) {
	idA := plumbing.NewHash("1111111111111111111111111111111111111111")
	idB := plumbing.NewHash("2222222222222222222222222222222222222222")

	store := &fakeRefStore{refs: map[string]plumbing.Hash{
		"refs/heads/main": idA,
	}}
	ApplyRefs(store, RefSet{
		"refs/heads/main":    idB,
		"refs/heads/feature": idA,
	})
	want := map[string]plumbing.Hash{
		"refs/heads/main":    idB,
		"refs/heads/feature": idA,
	}
	if diff := cmp.Diff(want, store.refs); diff != "" {
		t.Errorf("unexpected refs (-want +got):\n%s", diff)
	}
}

type fakeRefStore struct {
	refs map[string]plumbing.Hash
}

func (s *fakeRefStore) Refs() map[string]plumbing.Hash {
	return s.refs
}

func (s *fakeRefStore) SetIfEquals(name string, old *plumbing.Hash, newID plumbing.Hash) bool {
	s.refs[name] = newID
	return true
}
