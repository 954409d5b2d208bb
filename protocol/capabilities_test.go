// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCaps(t *testing.T) {
	caps := ParseCaps("report-status delete-refs  ofs-delta\n")
	if diff := cmp.Diff([]string{"report-status", "delete-refs", "ofs-delta"}, caps.List()); diff != "" {
		t.Errorf("unexpected caps (-want +got):\n%s", diff)
	}
	if !caps.Has("delete-refs") || caps.Has("side-band") {
		t.Error("membership checks failed")
	}
}

func TestNegotiateIntersection(t *testing.T) {
	local := NewCapSet(CapReportStatus, CapDeleteRefs, CapOFSDelta)
	remote := ParseCaps("ofs-delta report-status shallow no-thin")
	got := Negotiate(local, remote)
	// Local preference order wins, unknown remote caps are dropped.
	if diff := cmp.Diff([]string{CapReportStatus, CapOFSDelta}, got.List()); diff != "" {
		t.Errorf("unexpected negotiation result (-want +got):\n%s", diff)
	}
}

func TestNegotiatePrefersSideBand64k(t *testing.T) {
	local := NewCapSet(CapSideBand64k, CapSideBand, CapOFSDelta)
	remote := ParseCaps("side-band side-band-64k ofs-delta")
	got := Negotiate(local, remote)
	if !got.Has(CapSideBand64k) || got.Has(CapSideBand) {
		t.Fatalf("expected side-band-64k only, got %q", got.String())
	}

	// Remote only offers the plain variant.
	remote = ParseCaps("side-band ofs-delta")
	got = Negotiate(local, remote)
	if got.Has(CapSideBand64k) || !got.Has(CapSideBand) {
		t.Fatalf("expected side-band fallback, got %q", got.String())
	}
}

func TestNegotiateDeterministic(t *testing.T) {
	local := NewCapSet(CapReportStatus, CapSideBand64k, CapSideBand, CapOFSDelta)
	remote := ParseCaps("ofs-delta side-band report-status side-band-64k")
	first := Negotiate(local, remote).String()
	for i := 0; i < 10; i++ {
		if got := Negotiate(local, remote).String(); got != first {
			t.Fatalf("negotiation not deterministic: %q vs %q", got, first)
		}
	}
}

func TestCapSetString(t *testing.T) {
	if got := NewCapSet("a", "b", "a").String(); got != "a b" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := NewCapSet().String(); got != "" {
		t.Fatalf("unexpected string %q", got)
	}
}
