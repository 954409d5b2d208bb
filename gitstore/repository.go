// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package gitstore provides an in-memory object and ref database backed by
// go-git storage, implementing the collaborator surfaces the transfer client
// needs: pack generation and acceptance, reachability, and compare-and-swap
// ref updates.
package gitstore

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/revlist"
	"github.com/go-git/go-git/v5/storage/memory"
)

const packWindow = 10

// A Repository is safe for concurrent use. Ref updates are serialized by an
// internal lock with compare-and-swap semantics; object storage is
// append-only.
type Repository struct {
	storage *memory.Storage

	mu   sync.Mutex
	refs map[string]plumbing.Hash
}

func NewRepository() *Repository {
	return &Repository{
		storage: memory.NewStorage(),
		refs:    make(map[string]plumbing.Hash),
	}
}

// Refs returns a copy of the current ref set.
func (r *Repository) Refs() map[string]plumbing.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := make(map[string]plumbing.Hash, len(r.refs))
	for name, id := range r.refs {
		refs[name] = id
	}
	return refs
}

// SetIfEquals updates name to newID only if the ref currently holds the
// expected old value: nil means update unconditionally, ZeroHash means the
// ref must not exist. A ZeroHash newID deletes the ref. It reports whether
// the update was applied.
func (r *Repository) SetIfEquals(name string, old *plumbing.Hash, newID plumbing.Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, exists := r.refs[name]
	if old != nil {
		if old.IsZero() {
			if exists {
				return false
			}
		} else if !exists || cur != *old {
			return false
		}
	}
	if newID.IsZero() {
		delete(r.refs, name)
	} else {
		r.refs[name] = newID
	}
	return true
}

// HasObject reports whether the object database contains id.
func (r *Repository) HasObject(id plumbing.Hash) (bool, error) {
	err := r.storage.HasEncodedObject(id)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReachableObjects returns every object id reachable from the current refs,
// in ascending order.
func (r *Repository) ReachableObjects() ([]plumbing.Hash, error) {
	ids, err := revlist.Objects(r.storage, r.refTips(), nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// AddPackfile reads a complete pack stream and stores every object in it.
// A pack with zero objects is accepted; ref-only pushes send one.
func (r *Repository) AddPackfile(rd io.Reader) error {
	err := packfile.UpdateObjectStorage(r.storage, rd)
	if errors.Is(err, packfile.ErrEmptyPackfile) {
		return nil
	}
	return err
}

// GeneratePackContents encodes a pack holding everything reachable from the
// want ids that is not reachable from the have ids. Haves unknown to this
// repository are ignored; the peer may know objects we do not.
func (r *Repository) GeneratePackContents(have, want []plumbing.Hash) (io.Reader, error) {
	var known []plumbing.Hash
	for _, id := range have {
		if ok, err := r.HasObject(id); err != nil {
			return nil, err
		} else if ok {
			known = append(known, id)
		}
	}
	ids, err := revlist.Objects(r.storage, want, known)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(nil)
	enc := packfile.NewEncoder(buf, r.storage, false)
	if _, err := enc.Encode(ids, packWindow); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func (r *Repository) refTips() []plumbing.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[plumbing.Hash]bool)
	var tips []plumbing.Hash
	for _, id := range r.refs {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			tips = append(tips, id)
		}
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].String() < tips[j].String() })
	return tips
}

// fixedSignature keeps object ids stable across runs so that identical
// content always hashes identically in tests and fixtures.
var fixedSignature = object.Signature{
	Name:  "wire-git",
	Email: "wire-git@nonexistent",
	When:  time.Unix(0, 0).UTC(),
}

// AddBlob stores data as a blob and returns its id.
func (r *Repository) AddBlob(data []byte) (plumbing.Hash, error) {
	obj := r.storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.storage.SetEncodedObject(obj)
}

// AddTree stores a tree with the given entries and returns its id.
func (r *Repository) AddTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	sorted := append([]object.TreeEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	tree := &object.Tree{Entries: sorted}
	obj := r.storage.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.storage.SetEncodedObject(obj)
}

// AddCommit stores a commit pointing at tree and returns its id.
func (r *Repository) AddCommit(tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:       fixedSignature,
		Committer:    fixedSignature,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := r.storage.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.storage.SetEncodedObject(obj)
}
