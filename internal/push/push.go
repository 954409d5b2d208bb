// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package push implements the client half of the send-pack / receive-pack
// protocol over an established git daemon connection.
package push

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/protocol"
	"github.com/aviator-co/wire-git/transport"
)

// An Update is one requested ref change.
type Update struct {
	Name string

	// Old is the value the remote is expected to hold. ZeroHash means the
	// ref is being created.
	Old plumbing.Hash
	// New is the value to set. ZeroHash means the ref is being deleted.
	New plumbing.Hash
}

// Params carries the caller-injected policy for one push: which updates to
// request given the remote's current refs, and how to produce the pack
// bridging what the remote has and what it will need.
type Params struct {
	Path string

	DetermineRefs func(remoteRefs map[string]plumbing.Hash) ([]Update, error)
	GeneratePack  func(have, want []plumbing.Hash) (io.Reader, error)

	LocalCaps *protocol.CapSet
}

// A Result captures everything the server told us during the push.
type Result struct {
	Advertised map[string]plumbing.Hash
	Caps       *protocol.CapSet
	Updates    []Update

	// Report is nil when report-status was not negotiated; without it there
	// is no per-ref attribution and success is assumed unless the
	// connection fails.
	Report *protocol.ReportStatus

	PackfileSize int64
}

// Run drives a push to completion on conn. Ref rejections are not an error
// at this layer; they are reported through Result.Report.
func Run(ctx context.Context, conn *transport.Conn, params *Params) (*Result, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}
	if err := conn.SendCommand("git-receive-pack", params.Path); err != nil {
		return nil, err
	}
	adv, err := protocol.ReadAdvertisement(conn)
	if err != nil {
		return nil, closedOnEOF(err)
	}

	updates, err := params.DetermineRefs(adv.Refs)
	if err != nil {
		return nil, err
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })

	caps := protocol.Negotiate(params.LocalCaps, adv.Caps)
	res := &Result{Advertised: adv.Refs, Caps: caps, Updates: updates}

	if len(updates) == 0 {
		// Nothing to request. A lone flush tells the server we are done.
		return res, conn.Flush()
	}
	for i, u := range updates {
		if i == 0 {
			err = conn.Writef("%s %s %s\x00%s", u.Old, u.New, u.Name, caps)
		} else {
			err = conn.Writef("%s %s %s", u.Old, u.New, u.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	if wantsPack(updates) {
		pack, err := params.GeneratePack(packHaves(adv.Refs), packWants(updates))
		if err != nil {
			return nil, err
		}
		// The pack stream follows the flush immediately and unframed.
		n, err := io.Copy(conn.RawWriter(), pack)
		if err != nil {
			return nil, err
		}
		res.PackfileSize = n
	}

	if caps.Has(protocol.CapReportStatus) {
		report, err := protocol.ReadReportStatus(conn)
		if err != nil {
			return nil, closedOnEOF(err)
		}
		res.Report = report
	}
	return res, nil
}

// wantsPack reports whether any update is not a pure deletion. Delete-only
// pushes send no pack at all.
func wantsPack(updates []Update) bool {
	for _, u := range updates {
		if !u.New.IsZero() {
			return true
		}
	}
	return false
}

func packHaves(advertised map[string]plumbing.Hash) []plumbing.Hash {
	seen := make(map[plumbing.Hash]bool)
	var haves []plumbing.Hash
	for _, id := range advertised {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			haves = append(haves, id)
		}
	}
	sort.Slice(haves, func(i, j int) bool { return haves[i].String() < haves[j].String() })
	return haves
}

func packWants(updates []Update) []plumbing.Hash {
	seen := make(map[plumbing.Hash]bool)
	var wants []plumbing.Hash
	for _, u := range updates {
		if !u.New.IsZero() && !seen[u.New] {
			seen[u.New] = true
			wants = append(wants, u.New)
		}
	}
	return wants
}

// closedOnEOF maps a clean EOF in the middle of the protocol to the
// connection-closed error: the peer hung up where the grammar required more.
func closedOnEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return transport.ErrConnectionClosed
	}
	return err
}
