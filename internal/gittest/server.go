// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

// Package gittest runs an in-process git daemon speaking the v0 smart
// protocol (upload-pack and receive-pack) against a gitstore repository, so
// the client can be exercised over real TCP connections without an external
// git installation.
package gittest

import (
	"io"
	"net"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/aviator-co/wire-git/gitstore"
	"github.com/aviator-co/wire-git/pktline"
	"github.com/aviator-co/wire-git/protocol"
)

const (
	receiveCaps = "report-status delete-refs ofs-delta"
	uploadCaps  = "side-band-64k side-band ofs-delta"
)

type Server struct {
	Repo *gitstore.Repository

	// Reject, if set, vetoes individual ref updates with the returned
	// reason; an empty reason lets the update through to the normal
	// compare-and-swap.
	Reject func(name string, old, new plumbing.Hash) string

	// UploadError, if set, is sent on side-band channel 3 in place of the
	// pack stream.
	UploadError string

	// Progress, if set, is sent on side-band channel 2 before the pack.
	Progress string

	ln net.Listener
}

// NewServer returns an unstarted server. Reject, UploadError, and Progress
// must be configured before Start; the serving goroutine reads them without
// locking.
func NewServer(repo *gitstore.Repository) *Server {
	return &Server{Repo: repo}
}

// Start listens on an ephemeral localhost port and serves until the test
// ends.
func (s *Server) Start(t *testing.T) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.ln = ln
	go s.serve()
	t.Cleanup(func() { ln.Close() })
}

// Start runs a server with no hooks configured.
func Start(t *testing.T, repo *gitstore.Repository) *Server {
	t.Helper()
	s := NewServer(repo)
	s.Start(t)
	return s
}

func (s *Server) Host() string {
	return "127.0.0.1"
}

func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *Server) serve() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(nc)
	}
}

func (s *Server) handle(nc net.Conn) {
	defer nc.Close()
	pr := pktline.NewReader(nc)
	pw := pktline.NewWriter(nc)

	pkt, err := pr.ReadPacket()
	if err != nil {
		return
	}
	// "git-upload-pack /path\0host=h\0"
	line := string(pkt)
	service, rest, ok := strings.Cut(line, " ")
	if !ok {
		return
	}
	if i := strings.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	switch service {
	case "git-upload-pack":
		s.uploadPack(nc, pr, pw)
	case "git-receive-pack":
		s.receivePack(nc, pr, pw)
	}
}

func (s *Server) advertise(pw *pktline.Writer, caps string) error {
	refs := s.Repo.Refs()
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		if err := pw.Writef("%s capabilities^{}\x00%s\n", plumbing.ZeroHash, caps); err != nil {
			return err
		}
		return pw.Flush()
	}
	for i, name := range names {
		var err error
		if i == 0 {
			err = pw.Writef("%s %s\x00%s\n", refs[name], name, caps)
		} else {
			err = pw.Writef("%s %s\n", refs[name], name)
		}
		if err != nil {
			return err
		}
	}
	return pw.Flush()
}

type updateCmd struct {
	name string
	old  plumbing.Hash
	new  plumbing.Hash
}

func (s *Server) receivePack(nc net.Conn, pr *pktline.Reader, pw *pktline.Writer) {
	if err := s.advertise(pw, receiveCaps); err != nil {
		return
	}

	var cmds []updateCmd
	clientCaps := protocol.NewCapSet()
	first := true
	for {
		pkt, err := pr.ReadPacket()
		if err == pktline.ErrFlush {
			break
		}
		if err != nil {
			return
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		if first {
			first = false
			var caps string
			line, caps, _ = strings.Cut(line, "\x00")
			clientCaps = protocol.ParseCaps(caps)
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return
		}
		cmds = append(cmds, updateCmd{
			name: fields[2],
			old:  plumbing.NewHash(fields[0]),
			new:  plumbing.NewHash(fields[1]),
		})
	}
	if len(cmds) == 0 {
		return
	}

	unpack := "ok"
	if !deleteOnly(cmds) {
		if err := s.Repo.AddPackfile(nc); err != nil {
			unpack = err.Error()
		}
	}

	var statuses []protocol.RefStatus
	for _, cmd := range cmds {
		if unpack != "ok" {
			statuses = append(statuses, protocol.RefStatus{Ref: cmd.name, Reason: "unpacker error"})
			continue
		}
		if s.Reject != nil {
			if reason := s.Reject(cmd.name, cmd.old, cmd.new); reason != "" {
				statuses = append(statuses, protocol.RefStatus{Ref: cmd.name, Reason: reason})
				continue
			}
		}
		old := cmd.old
		if !s.Repo.SetIfEquals(cmd.name, &old, cmd.new) {
			statuses = append(statuses, protocol.RefStatus{Ref: cmd.name, Reason: "failed to update"})
			continue
		}
		statuses = append(statuses, protocol.RefStatus{Ref: cmd.name})
	}

	if !clientCaps.Has(protocol.CapReportStatus) {
		return
	}
	if err := pw.Writef("unpack %s\n", unpack); err != nil {
		return
	}
	for _, st := range statuses {
		var err error
		if st.OK() {
			err = pw.Writef("ok %s\n", st.Ref)
		} else {
			err = pw.Writef("ng %s %s\n", st.Ref, st.Reason)
		}
		if err != nil {
			return
		}
	}
	pw.Flush()
}

func deleteOnly(cmds []updateCmd) bool {
	for _, cmd := range cmds {
		if !cmd.new.IsZero() {
			return false
		}
	}
	return true
}

func (s *Server) uploadPack(nc net.Conn, pr *pktline.Reader, pw *pktline.Writer) {
	if err := s.advertise(pw, uploadCaps); err != nil {
		return
	}

	var wants []plumbing.Hash
	clientCaps := protocol.NewCapSet()
	first := true
	for {
		pkt, err := pr.ReadPacket()
		if err == pktline.ErrFlush {
			break
		}
		if err != nil {
			return
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		rest, ok := strings.CutPrefix(line, "want ")
		if !ok {
			return
		}
		if first {
			first = false
			var caps string
			rest, caps, _ = strings.Cut(rest, " ")
			clientCaps = protocol.ParseCaps(caps)
		}
		wants = append(wants, plumbing.NewHash(rest))
	}
	if len(wants) == 0 {
		return
	}

	var common []plumbing.Hash
	for {
		pkt, err := pr.ReadPacket()
		if err == pktline.ErrFlush {
			continue
		}
		if err != nil {
			return
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		if line == "done" {
			break
		}
		id, ok := strings.CutPrefix(line, "have ")
		if !ok {
			return
		}
		hash := plumbing.NewHash(id)
		if has, err := s.Repo.HasObject(hash); err == nil && has {
			common = append(common, hash)
		}
	}

	if len(common) == 0 {
		if err := pw.Writef("NAK\n"); err != nil {
			return
		}
	} else if err := pw.Writef("ACK %s\n", common[len(common)-1]); err != nil {
		return
	}

	sideband := clientCaps.Has(protocol.CapSideBand64k) || clientCaps.Has(protocol.CapSideBand)
	if s.UploadError != "" && sideband {
		pw.WritePacket(append([]byte{3}, s.UploadError...))
		pw.Flush()
		return
	}

	pack, err := s.Repo.GeneratePackContents(common, wants)
	if err != nil {
		return
	}
	if !sideband {
		io.Copy(nc, pack)
		return
	}

	frameSize := 995
	if clientCaps.Has(protocol.CapSideBand64k) {
		frameSize = pktline.MaxPayloadLen - 1
	}
	if s.Progress != "" {
		if err := pw.WritePacket(append([]byte{2}, s.Progress...)); err != nil {
			return
		}
	}
	buf := make([]byte, frameSize)
	for {
		n, err := pack.Read(buf)
		if n > 0 {
			if werr := pw.WritePacket(append([]byte{1}, buf[:n]...)); werr != nil {
				return
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return
		}
	}
	pw.Flush()
}
