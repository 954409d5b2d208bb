// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar"

	"github.com/aviator-co/wire-git/gitprotocontext"
	"github.com/aviator-co/wire-git/internal/fetch"
	"github.com/aviator-co/wire-git/transport"
)

type RefInfo struct {
	// Name is the name of the ref.
	Name string `json:"name"`

	// Hash is the hash of the object that the ref points to.
	Hash string `json:"hash"`
}

// LsRemote reads the ref advertisement of the repository at path and returns
// it without requesting any objects. Patterns, if given, filter the result
// by ref name; they use doublestar glob syntax, so "refs/heads/**" matches
// every branch.
func (c *Client) LsRemote(ctx context.Context, path string, patterns ...string) ([]*RefInfo, error) {
	ctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := gitprotocontext.GitFetchTimeout(ctx); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	conn, err := transport.Dial(ctx, c.host, c.port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	refs, err := fetch.LsRemote(ctx, conn, path)
	if err != nil {
		return nil, err
	}

	var out []*RefInfo
	for name, id := range refs {
		ok, err := matchAny(patterns, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, &RefInfo{Name: name, Hash: id.String()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchAny(patterns []string, name string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("bad ref pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
