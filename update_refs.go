// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"context"
	"io"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/debug"
	"github.com/aviator-co/wire-git/gitstore"
)

type RefUpdateCommand struct {
	// RefName is a reference name to update (e.g. "refs/heads/main").
	RefName string `json:"refName"`
	// OldHash is a hash of the reference before the update.
	//
	// There is a difference between zero hash and empty string:
	//
	// * If this is a zero hash, it means that the reference should be newly
	//   created (it should not exist).
	// * If this is an empty string, the advertised value of the reference is
	//   used, so the update fails if the reference moved since the
	//   advertisement was read.
	OldHash string `json:"oldHash"`
	// NewHash is the value that the reference will be updated to.
	NewHash string `json:"newHash"`
}

type UpdateRefsArgs struct {
	Host              string             `json:"host"`
	Port              int                `json:"port,omitempty"`
	Path              string             `json:"path"`
	RefUpdateCommands []RefUpdateCommand `json:"refUpdateCommands"`
}

type UpdateRefsOutput struct {
	PushDebugInfo *debug.PushDebugInfo `json:"pushDebugInfo"`
	Error         string               `json:"error,omitempty"`
}

// UpdateRefs moves remote refs between objects the remote already has,
// pushing an empty pack. Useful for branch creation, deletion, and
// fast-forwarding without transferring any objects.
func UpdateRefs(ctx context.Context, args UpdateRefsArgs) UpdateRefsOutput {
	opts := []Option{}
	if args.Port != 0 {
		opts = append(opts, WithPort(args.Port))
	}
	client := NewClient(args.Host, opts...)

	determineRefs := func(remoteRefs RefSet) ([]RefUpdate, error) {
		var updates []RefUpdate
		for _, cmd := range args.RefUpdateCommands {
			u := RefUpdate{
				Name: cmd.RefName,
				New:  plumbing.NewHash(cmd.NewHash),
			}
			if cmd.OldHash != "" {
				u.Old = plumbing.NewHash(cmd.OldHash)
			} else {
				u.Old = remoteRefs[cmd.RefName]
			}
			updates = append(updates, u)
		}
		return updates, nil
	}
	// Need an empty packfile to push; every referenced object must already
	// be on the remote.
	emptyPack := func(have, want []plumbing.Hash) (io.Reader, error) {
		return gitstore.NewRepository().GeneratePackContents(nil, nil)
	}

	var ret UpdateRefsOutput
	pushDebugInfo, err := client.SendPack(ctx, args.Path, determineRefs, emptyPack)
	ret.PushDebugInfo = pushDebugInfo
	if err != nil {
		ret.Error = err.Error()
	}
	return ret
}
