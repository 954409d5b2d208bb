// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package wiregit is a client for the Git smart transfer protocol over the
// raw git daemon TCP transport: it pushes (send-pack) and fetches
// (fetch-pack) object data and ref updates against a remote repository.
package wiregit

import (
	"io"

	"github.com/aviator-co/wire-git/protocol"
	"github.com/aviator-co/wire-git/transport"
)

// A Client holds the connection target and the local capability preferences
// for one remote host. It is stateless across operations and safe for
// concurrent use; every push or fetch owns its own connection.
type Client struct {
	host         string
	port         int
	reportStatus bool
	progress     io.Writer
}

type Option func(*Client)

// WithPort overrides the default git daemon port.
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithoutReportStatus stops the client from requesting the report-status
// capability on pushes. Without it the server gives no per-ref attribution:
// a push is assumed to have succeeded unless the connection fails.
func WithoutReportStatus() Option {
	return func(c *Client) { c.reportStatus = false }
}

// WithProgress directs the remote's side-band progress text (channel 2)
// during fetches to w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) { c.progress = w }
}

func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host:         host,
		port:         transport.DefaultPort,
		reportStatus: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) sendCaps() *protocol.CapSet {
	caps := protocol.NewCapSet(
		protocol.CapReportStatus,
		protocol.CapDeleteRefs,
		protocol.CapOFSDelta,
	)
	if !c.reportStatus {
		caps.Remove(protocol.CapReportStatus)
	}
	return caps
}

func (c *Client) fetchCaps() *protocol.CapSet {
	return protocol.NewCapSet(
		protocol.CapSideBand64k,
		protocol.CapSideBand,
		protocol.CapOFSDelta,
	)
}
