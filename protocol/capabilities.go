// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import "strings"

// Capability tokens used by this client.
const (
	CapReportStatus = "report-status"
	CapDeleteRefs   = "delete-refs"
	CapOFSDelta     = "ofs-delta"
	CapSideBand     = "side-band"
	CapSideBand64k  = "side-band-64k"
)

// A CapSet is an ordered set of protocol capability tokens. Order matters on
// the client side: Negotiate preserves the local preference order so that the
// capability string sent to the server is deterministic.
type CapSet struct {
	order []string
	set   map[string]bool
}

func NewCapSet(caps ...string) *CapSet {
	c := &CapSet{set: make(map[string]bool)}
	for _, cp := range caps {
		c.Add(cp)
	}
	return c
}

// ParseCaps parses a whitespace-separated capability list, as advertised on
// the first ref line after the NUL byte.
func ParseCaps(s string) *CapSet {
	return NewCapSet(strings.Fields(s)...)
}

func (c *CapSet) Add(cap string) {
	if cap == "" || c.set[cap] {
		return
	}
	c.set[cap] = true
	c.order = append(c.order, cap)
}

func (c *CapSet) Remove(cap string) {
	if !c.set[cap] {
		return
	}
	delete(c.set, cap)
	for i, cp := range c.order {
		if cp == cap {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *CapSet) Has(cap string) bool {
	return c.set[cap]
}

func (c *CapSet) Len() int {
	return len(c.order)
}

// List returns the capabilities in order. The returned slice is a copy.
func (c *CapSet) List() []string {
	return append([]string(nil), c.order...)
}

// String returns the capabilities joined by single spaces, in order. This is
// the form attached to the first command line of a request.
func (c *CapSet) String() string {
	return strings.Join(c.order, " ")
}

// Negotiate intersects the locally supported capabilities with the set the
// remote advertised, keeping the local preference order. If both side-band
// variants survive the intersection, only side-band-64k is kept. The result
// is deterministic given identical inputs.
func Negotiate(local, remote *CapSet) *CapSet {
	out := NewCapSet()
	for _, cp := range local.order {
		if remote.Has(cp) {
			out.Add(cp)
		}
	}
	if out.Has(CapSideBand64k) {
		out.Remove(CapSideBand)
	}
	return out
}
