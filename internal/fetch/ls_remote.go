// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package fetch

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/protocol"
	"github.com/aviator-co/wire-git/transport"
)

// LsRemote reads the ref advertisement on conn and ends the conversation
// without requesting anything.
func LsRemote(ctx context.Context, conn *transport.Conn, path string) (map[string]plumbing.Hash, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}
	if err := conn.SendCommand("git-upload-pack", path); err != nil {
		return nil, err
	}
	adv, err := protocol.ReadAdvertisement(conn)
	if err != nil {
		return nil, closedOnEOF(err)
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	return adv.Refs, nil
}
