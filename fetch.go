// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"context"

	"github.com/aviator-co/wire-git/debug"
	"github.com/aviator-co/wire-git/gitprotocontext"
	"github.com/aviator-co/wire-git/internal/fetch"
	"github.com/aviator-co/wire-git/transport"
)

// Fetch pulls the objects the repository at path has and local is missing,
// stores them through local, and returns the remote's ref set. Refs are
// never applied to local storage here; use ApplyRefs (or your own
// compare-and-swap policy) on the result.
//
// Fetching from an unchanged remote is a no-op: nothing is requested and no
// pack is transferred.
func (c *Client) Fetch(ctx context.Context, path string, local LocalRepository) (RefSet, *debug.FetchDebugInfo, error) {
	debugInfo := &debug.FetchDebugInfo{}

	ctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := gitprotocontext.GitFetchTimeout(ctx); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	conn, err := transport.Dial(ctx, c.host, c.port)
	if err != nil {
		return nil, debugInfo, err
	}
	defer conn.Close()

	res, err := fetch.Run(ctx, conn, path, local, c.fetchCaps(), c.progress)
	if res != nil {
		debugInfo.Capabilities = res.Caps.List()
		debugInfo.WantCount = res.WantCount
		debugInfo.HaveCount = res.HaveCount
		debugInfo.PackfileSize = res.PackfileSize
	}
	if err != nil {
		return nil, debugInfo, err
	}
	return RefSet(res.Refs), debugInfo, nil
}
