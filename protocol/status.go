// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import (
	"strings"

	"github.com/aviator-co/wire-git/pktline"
)

// UnpackOK is the status the server reports when it applied the pack stream.
const UnpackOK = "ok"

// A RefStatus is the reported outcome of a single ref update. An empty
// Reason means the update was accepted; a rejected update carries the
// server's reason text verbatim (e.g. "non-fast-forward").
type RefStatus struct {
	Ref    string
	Reason string
}

func (s RefStatus) OK() bool {
	return s.Reason == ""
}

func (s RefStatus) String() string {
	if s.OK() {
		return "ok"
	}
	return s.Reason
}

// A ReportStatus is the parsed report-status response to a push: the unpack
// result followed by one status per ref the server chose to report.
type ReportStatus struct {
	// Unpack is UnpackOK or the server's error message for the pack stream.
	Unpack string

	Commands []RefStatus
}

// UnpackOK reports whether the server applied the pack stream.
func (r *ReportStatus) UnpackOK() bool {
	return r.Unpack == UnpackOK
}

// ReadReportStatus parses the report-status section of a receive-pack
// response: an "unpack" line, zero or more "ok <ref>" / "ng <ref> <reason>"
// lines, and a terminating flush-pkt.
func ReadReportStatus(r PacketReader) (*ReportStatus, error) {
	report := &ReportStatus{}
	sawUnpack := false
	for {
		pkt, err := r.ReadPacket()
		if err == pktline.ErrFlush {
			if !sawUnpack {
				return nil, protocolErrorf("report-status ended without an unpack line")
			}
			return report, nil
		}
		if err != nil {
			return nil, err
		}
		line := strings.TrimSuffix(string(pkt), "\n")
		if !sawUnpack {
			msg, ok := strings.CutPrefix(line, "unpack ")
			if !ok || msg == "" {
				return nil, protocolErrorf("malformed unpack status line %q", line)
			}
			report.Unpack = msg
			sawUnpack = true
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok "):
			report.Commands = append(report.Commands, RefStatus{
				Ref: strings.TrimPrefix(line, "ok "),
			})
		case strings.HasPrefix(line, "ng "):
			rest := strings.TrimPrefix(line, "ng ")
			ref, reason, ok := strings.Cut(rest, " ")
			if !ok || reason == "" {
				reason = "failed"
			}
			report.Commands = append(report.Commands, RefStatus{
				Ref:    ref,
				Reason: reason,
			})
		default:
			return nil, protocolErrorf("malformed ref status line %q", line)
		}
	}
}
