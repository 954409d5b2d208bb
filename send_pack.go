// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/debug"
	"github.com/aviator-co/wire-git/gitprotocontext"
	"github.com/aviator-co/wire-git/internal/push"
	"github.com/aviator-co/wire-git/transport"
)

// SendPack pushes ref updates and the pack bridging them to the repository
// at path on the client's host. determineRefs decides which updates to
// request given the remote's advertised refs; generatePack produces the pack
// stream for the non-deletion updates.
//
// A rejection of any requested ref surfaces as *UpdateRefsError. Transport
// and protocol failures surface as their own error types. The returned debug
// info is valid even when an error is returned.
func (c *Client) SendPack(ctx context.Context, path string, determineRefs DetermineRefsFunc, generatePack PackGenerator) (*debug.PushDebugInfo, error) {
	debugInfo := &debug.PushDebugInfo{}

	ctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := gitprotocontext.GitPushTimeout(ctx); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	conn, err := transport.Dial(ctx, c.host, c.port)
	if err != nil {
		return debugInfo, err
	}
	defer conn.Close()

	res, err := push.Run(ctx, conn, &push.Params{
		Path:      path,
		LocalCaps: c.sendCaps(),
		DetermineRefs: func(remoteRefs map[string]plumbing.Hash) ([]push.Update, error) {
			updates, err := determineRefs(RefSet(remoteRefs))
			if err != nil {
				return nil, err
			}
			out := make([]push.Update, len(updates))
			for i, u := range updates {
				out[i] = push.Update{Name: u.Name, Old: u.Old, New: u.New}
			}
			return out, nil
		},
		GeneratePack: generatePack,
	})
	if res != nil {
		debugInfo.Capabilities = res.Caps.List()
		debugInfo.PackfileSize = res.PackfileSize
		if res.Report != nil {
			debugInfo.UnpackStatus = res.Report.Unpack
			for _, cmd := range res.Report.Commands {
				debugInfo.CommandStatuses = append(debugInfo.CommandStatuses, &debug.PushCommandStatus{
					Name:   cmd.Ref,
					Status: cmd.String(),
				})
			}
		}
	}
	if err != nil {
		return debugInfo, err
	}
	return debugInfo, refsError(res.Updates, res.Report)
}
