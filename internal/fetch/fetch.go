// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package fetch implements the client half of the fetch-pack / upload-pack
// protocol over an established git daemon connection.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/protocol"
	"github.com/aviator-co/wire-git/transport"
)

// maxHaves bounds the negotiation: past this many have lines the extra
// delta-base candidates are not worth the round-trip bytes.
const maxHaves = 256

// A LocalRepo is the object-store surface the fetch engine needs: membership
// tests for want computation, the reachable set for have lines, and a sink
// for the received pack stream. The engine never touches ref storage.
type LocalRepo interface {
	HasObject(id plumbing.Hash) (bool, error)
	ReachableObjects() ([]plumbing.Hash, error)
	AddPackfile(r io.Reader) error
}

type Result struct {
	// Refs is the remote's advertised ref set, returned unmodified; applying
	// it to local ref storage is the caller's responsibility.
	Refs map[string]plumbing.Hash
	Caps *protocol.CapSet

	WantCount    int
	HaveCount    int
	PackfileSize int64
}

// Run drives a fetch to completion on conn, storing the received pack in
// local. When the remote advertises nothing the local side is missing, no
// pack is requested at all.
func Run(ctx context.Context, conn *transport.Conn, path string, local LocalRepo, localCaps *protocol.CapSet, progress io.Writer) (*Result, error) {
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

	caps := protocol.Negotiate(localCaps, adv.Caps)
	res := &Result{Refs: adv.Refs, Caps: caps}

	wants, err := computeWants(adv.Refs, local)
	if err != nil {
		return nil, err
	}
	res.WantCount = len(wants)
	if len(wants) == 0 {
		// Everything the remote has, we have. End the conversation.
		return res, conn.Flush()
	}

	for i, id := range wants {
		line := wantLine(id, nil)
		if i == 0 {
			line = wantLine(id, caps)
		}
		if err := conn.Writef("%s", line); err != nil {
			return nil, err
		}
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	haves, err := local.ReachableObjects()
	if err != nil {
		return nil, err
	}
	if len(haves) > maxHaves {
		haves = haves[:maxHaves]
	}
	res.HaveCount = len(haves)
	for _, id := range haves {
		if err := conn.Writef("have %s\n", id); err != nil {
			return nil, err
		}
	}
	if err := conn.Writef("done\n"); err != nil {
		return nil, err
	}

	if err := readAcks(conn); err != nil {
		return nil, err
	}

	pack := bytes.NewBuffer(nil)
	if caps.Has(protocol.CapSideBand64k) || caps.Has(protocol.CapSideBand) {
		err = protocol.DemuxSideBand(conn, pack, progress)
	} else {
		_, err = io.Copy(pack, conn.Raw())
	}
	if err != nil {
		return nil, err
	}
	res.PackfileSize = int64(pack.Len())
	if err := local.AddPackfile(bytes.NewReader(pack.Bytes())); err != nil {
		return nil, err
	}
	return res, nil
}

// wantLine formats one want request. Capabilities ride on the first line of
// the request only, and the space-separated suffix is omitted entirely when
// the negotiated set is empty.
func wantLine(id plumbing.Hash, caps *protocol.CapSet) string {
	if caps == nil || caps.Len() == 0 {
		return fmt.Sprintf("want %s\n", id)
	}
	return fmt.Sprintf("want %s %s\n", id, caps)
}

// computeWants returns the advertised ids not already present locally, in
// ascending order for a deterministic request.
func computeWants(advertised map[string]plumbing.Hash, local LocalRepo) ([]plumbing.Hash, error) {
	seen := make(map[plumbing.Hash]bool)
	var wants []plumbing.Hash
	for _, id := range advertised {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		ok, err := local.HasObject(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			wants = append(wants, id)
		}
	}
	sort.Slice(wants, func(i, j int) bool { return wants[i].String() < wants[j].String() })
	return wants, nil
}

// readAcks consumes the server's negotiation answer. The client sent done
// already, so nothing here changes what we request; we only need to find
// where the acknowledgment lines end and the pack begins.
func readAcks(conn *transport.Conn) error {
	for {
		pkt, err := conn.ReadPacket()
		if err != nil {
			return closedOnEOF(err)
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		switch {
		case line == "NAK":
			return nil
		case strings.HasPrefix(line, "ACK "):
			// "ACK <id> continue|common|ready" keeps the exchange open;
			// a bare "ACK <id>" is final.
			if strings.Count(line, " ") == 1 {
				return nil
			}
		case strings.HasPrefix(line, "shallow ") || strings.HasPrefix(line, "unshallow "):
			// Not requested, but harmless to skip.
		case strings.HasPrefix(line, "ERR "):
			return &protocol.RemoteError{Msg: strings.TrimPrefix(line, "ERR ")}
		default:
			return &protocol.ProtocolError{Msg: fmt.Sprintf("unexpected negotiation line %q", line)}
		}
	}
}

func closedOnEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return transport.ErrConnectionClosed
	}
	return err
}
