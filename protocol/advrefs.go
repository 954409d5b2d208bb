// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/pktline"
)

// A PacketReader yields pkt-line payloads. pktline.Reader and
// transport.Conn both satisfy it.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// An Advertisement is the server's initial response on both upload-pack and
// receive-pack connections: the complete ref set of the remote repository and
// the capability tokens the server offers.
type Advertisement struct {
	// Refs maps ref names (including HEAD, if the remote has one) to object
	// ids. Empty for an empty remote repository.
	Refs map[string]plumbing.Hash

	Caps *CapSet
}

// ReadAdvertisement consumes pkt-lines up to and including the terminating
// flush-pkt. The first line carries the capability list after a NUL byte; an
// empty repository advertises the sentinel "capabilities^{}" ref with a zero
// id instead of a real ref.
func ReadAdvertisement(r PacketReader) (*Advertisement, error) {
	adv := &Advertisement{
		Refs: make(map[string]plumbing.Hash),
		Caps: NewCapSet(),
	}
	first := true
	for {
		pkt, err := r.ReadPacket()
		if err == pktline.ErrFlush {
			if first {
				return nil, protocolErrorf("empty ref advertisement")
			}
			return adv, nil
		}
		if err != nil {
			return nil, err
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		if msg, ok := strings.CutPrefix(line, "ERR "); ok {
			return nil, &RemoteError{Msg: msg}
		}
		if first {
			first = false
			var caps string
			line, caps, _ = strings.Cut(line, "\x00")
			adv.Caps = ParseCaps(caps)
		}
		id, name, ok := strings.Cut(line, " ")
		if !ok || !plumbing.IsHash(id) || name == "" {
			return nil, protocolErrorf("malformed ref advertisement line %q", line)
		}
		hash := plumbing.NewHash(id)
		if name == "capabilities^{}" && hash.IsZero() {
			// Sentinel for an empty repository. Not a real ref.
			continue
		}
		if strings.HasSuffix(name, "^{}") {
			// Peeled tag value. The un-peeled ref carries the id we track.
			continue
		}
		adv.Refs[name] = hash
	}
}
