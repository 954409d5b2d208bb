// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kr/text"
	"github.com/stretchr/testify/require"

	wiregit "github.com/aviator-co/wire-git"
	"github.com/aviator-co/wire-git/gitstore"
	"github.com/aviator-co/wire-git/internal/gittest"
	"github.com/aviator-co/wire-git/transport"
)

func seedCommit(t *testing.T, repo *gitstore.Repository, content, message string, parents ...plumbing.Hash) plumbing.Hash {
	t.Helper()
	blob, err := repo.AddBlob([]byte(content))
	require.NoError(t, err)
	tree, err := repo.AddTree([]object.TreeEntry{
		{Name: "file.txt", Mode: filemode.Regular, Hash: blob},
	})
	require.NoError(t, err)
	commit, err := repo.AddCommit(tree, parents, message)
	require.NoError(t, err)
	return commit
}

// copyObjects moves everything reachable from id in src into dst.
func copyObjects(t *testing.T, src, dst *gitstore.Repository, id plumbing.Hash) {
	t.Helper()
	pack, err := src.GeneratePackContents(nil, []plumbing.Hash{id})
	require.NoError(t, err)
	require.NoError(t, dst.AddPackfile(pack))
}

func newTestClient(s *gittest.Server, opts ...wiregit.Option) *wiregit.Client {
	opts = append([]wiregit.Option{wiregit.WithPort(s.Port())}, opts...)
	return wiregit.NewClient(s.Host(), opts...)
}

func logDebugInfo(t *testing.T, label string, v any) {
	t.Helper()
	out, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	t.Logf("%s:\n%s", label, text.Indent(string(out), "  "))
}

func TestLsRemote(t *testing.T) {
	remote := gitstore.NewRepository()
	c1 := seedCommit(t, remote, "one", "first")
	c2 := seedCommit(t, remote, "two", "second", c1)
	require.True(t, remote.SetIfEquals("refs/heads/main", nil, c2))
	require.True(t, remote.SetIfEquals("refs/heads/feature", nil, c1))
	require.True(t, remote.SetIfEquals("refs/tags/v1", nil, c1))
	server := gittest.Start(t, remote)

	client := newTestClient(server)
	refs, err := client.LsRemote(context.Background(), "/repo")
	require.NoError(t, err)
	require.Equal(t, []*wiregit.RefInfo{
		{Name: "refs/heads/feature", Hash: c1.String()},
		{Name: "refs/heads/main", Hash: c2.String()},
		{Name: "refs/tags/v1", Hash: c1.String()},
	}, refs)

	refs, err = client.LsRemote(context.Background(), "/repo", "refs/heads/**")
	require.NoError(t, err)
	require.Equal(t, []*wiregit.RefInfo{
		{Name: "refs/heads/feature", Hash: c1.String()},
		{Name: "refs/heads/main", Hash: c2.String()},
	}, refs)

	refs, err = client.LsRemote(context.Background(), "/repo", "refs/tags/*", "refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, []*wiregit.RefInfo{
		{Name: "refs/heads/main", Hash: c2.String()},
		{Name: "refs/tags/v1", Hash: c1.String()},
	}, refs)
}

func TestLsRemoteBadPattern(t *testing.T) {
	remote := gitstore.NewRepository()
	c1 := seedCommit(t, remote, "one", "first")
	require.True(t, remote.SetIfEquals("refs/heads/main", nil, c1))
	server := gittest.Start(t, remote)

	_, err := newTestClient(server).LsRemote(context.Background(), "/repo", "refs/[")
	require.Error(t, err)
}

func TestUpdateRefs(t *testing.T) {
	remote := gitstore.NewRepository()
	c1 := seedCommit(t, remote, "one", "first")
	c2 := seedCommit(t, remote, "two", "second", c1)
	require.True(t, remote.SetIfEquals("refs/heads/main", nil, c2))
	server := gittest.Start(t, remote)

	// Branch creation moves no objects; both targets are already on the
	// remote.
	out := wiregit.UpdateRefs(context.Background(), wiregit.UpdateRefsArgs{
		Host: server.Host(),
		Port: server.Port(),
		Path: "/repo",
		RefUpdateCommands: []wiregit.RefUpdateCommand{
			{
				RefName: "refs/heads/branch",
				OldHash: plumbing.ZeroHash.String(),
				NewHash: c1.String(),
			},
		},
	})
	require.Empty(t, out.Error)
	require.Equal(t, c1, remote.Refs()["refs/heads/branch"])

	// An empty OldHash means "whatever is advertised", so a rewind of main
	// goes through without naming the current tip.
	out = wiregit.UpdateRefs(context.Background(), wiregit.UpdateRefsArgs{
		Host: server.Host(),
		Port: server.Port(),
		Path: "/repo",
		RefUpdateCommands: []wiregit.RefUpdateCommand{
			{RefName: "refs/heads/main", NewHash: c1.String()},
		},
	})
	require.Empty(t, out.Error)
	require.Equal(t, c1, remote.Refs()["refs/heads/main"])
}

func TestUpdateRefsCreateExisting(t *testing.T) {
	remote := gitstore.NewRepository()
	c1 := seedCommit(t, remote, "one", "first")
	require.True(t, remote.SetIfEquals("refs/heads/main", nil, c1))
	server := gittest.Start(t, remote)

	// Creation of a ref that already exists fails the compare-and-swap.
	out := wiregit.UpdateRefs(context.Background(), wiregit.UpdateRefsArgs{
		Host: server.Host(),
		Port: server.Port(),
		Path: "/repo",
		RefUpdateCommands: []wiregit.RefUpdateCommand{
			{
				RefName: "refs/heads/main",
				OldHash: plumbing.ZeroHash.String(),
				NewHash: c1.String(),
			},
		},
	})
	require.Equal(t, "refs/heads/main failed to update", out.Error)
	require.Equal(t, c1, remote.Refs()["refs/heads/main"])
}

func TestConnectionError(t *testing.T) {
	// Grab a port nothing is listening on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	client := wiregit.NewClient("127.0.0.1", wiregit.WithPort(port))
	_, _, err = client.Fetch(context.Background(), "/repo", gitstore.NewRepository())
	var cerr *transport.ConnectionError
	require.True(t, errors.As(err, &cerr), "expected ConnectionError, got %v", err)
}
