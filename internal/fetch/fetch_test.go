// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package fetch

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/aviator-co/wire-git/protocol"
)

func TestWantLine(t *testing.T) {
	id := plumbing.NewHash("1111111111111111111111111111111111111111")

	caps := protocol.NewCapSet(protocol.CapSideBand64k, protocol.CapOFSDelta)
	want := "want 1111111111111111111111111111111111111111 side-band-64k ofs-delta\n"
	if got := wantLine(id, caps); got != want {
		t.Errorf("unexpected line %q, want %q", got, want)
	}

	// No trailing space when there are no capabilities to assert.
	want = "want 1111111111111111111111111111111111111111\n"
	if got := wantLine(id, protocol.NewCapSet()); got != want {
		t.Errorf("unexpected line %q, want %q", got, want)
	}
	if got := wantLine(id, nil); got != want {
		t.Errorf("unexpected line %q, want %q", got, want)
	}
}
