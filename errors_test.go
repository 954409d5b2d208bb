// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aviator-co/wire-git/internal/push"
	"github.com/aviator-co/wire-git/protocol"
)

func pushUpdates(names ...string) []push.Update {
	updates := make([]push.Update, len(names))
	for i, name := range names {
		updates[i] = push.Update{Name: name}
	}
	return updates
}

func TestRefsErrorAllAccepted(t *testing.T) {
	err := refsError(pushUpdates("refs/heads/master"), &protocol.ReportStatus{
		Unpack:   protocol.UnpackOK,
		Commands: []protocol.RefStatus{{Ref: "refs/heads/master"}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRefsErrorNoReport(t *testing.T) {
	// Without report-status there is nothing to attribute; the push is
	// assumed to have succeeded.
	if err := refsError(pushUpdates("refs/heads/master"), nil); err != nil {
		t.Fatal(err)
	}
}

func TestRefsErrorSingleRejection(t *testing.T) {
	err := refsError(pushUpdates("refs/heads/master", "refs/heads/branch"), &protocol.ReportStatus{
		Unpack: protocol.UnpackOK,
		Commands: []protocol.RefStatus{
			{Ref: "refs/heads/branch"},
			{Ref: "refs/heads/master", Reason: "non-fast-forward"},
		},
	})
	var uerr *UpdateRefsError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpdateRefsError, got %v", err)
	}
	if got := uerr.Error(); got != "refs/heads/master failed to update" {
		t.Errorf("unexpected message %q", got)
	}
	want := map[string]protocol.RefStatus{
		"refs/heads/branch": {Ref: "refs/heads/branch"},
		"refs/heads/master": {Ref: "refs/heads/master", Reason: "non-fast-forward"},
	}
	if diff := cmp.Diff(want, uerr.RefStatuses); diff != "" {
		t.Errorf("unexpected statuses (-want +got):\n%s", diff)
	}
}

func TestRefsErrorMultipleRejections(t *testing.T) {
	err := refsError(pushUpdates("refs/heads/master", "refs/heads/branch"), &protocol.ReportStatus{
		Unpack: protocol.UnpackOK,
		Commands: []protocol.RefStatus{
			{Ref: "refs/heads/master", Reason: "non-fast-forward"},
			{Ref: "refs/heads/branch", Reason: "failed to lock"},
		},
	})
	var uerr *UpdateRefsError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpdateRefsError, got %v", err)
	}
	// Failed refs are listed in ascending name order regardless of report order.
	if got := uerr.Error(); got != "refs/heads/branch, refs/heads/master failed to update" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestRefsErrorImplicitOK(t *testing.T) {
	// A requested ref the server never reported on counts as accepted.
	err := refsError(pushUpdates("refs/heads/master", "refs/heads/silent"), &protocol.ReportStatus{
		Unpack: protocol.UnpackOK,
		Commands: []protocol.RefStatus{
			{Ref: "refs/heads/master", Reason: "non-fast-forward"},
		},
	})
	var uerr *UpdateRefsError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpdateRefsError, got %v", err)
	}
	status, ok := uerr.RefStatuses["refs/heads/silent"]
	if !ok || !status.OK() {
		t.Errorf("expected implicit ok for unreported ref, got %v", status)
	}
}

func TestRefsErrorUnpackFailure(t *testing.T) {
	err := refsError(pushUpdates("refs/heads/master"), &protocol.ReportStatus{
		Unpack:   "index-pack abnormal exit",
		Commands: []protocol.RefStatus{{Ref: "refs/heads/master"}},
	})
	var rerr *protocol.RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if rerr.Msg != "unpack index-pack abnormal exit" {
		t.Errorf("unexpected message %q", rerr.Msg)
	}
}

func TestRefsErrorRejectionTrumpsUnpackFailure(t *testing.T) {
	err := refsError(pushUpdates("refs/heads/master"), &protocol.ReportStatus{
		Unpack: "index-pack abnormal exit",
		Commands: []protocol.RefStatus{
			{Ref: "refs/heads/master", Reason: "unpacker error"},
		},
	})
	var uerr *UpdateRefsError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpdateRefsError, got %v", err)
	}
}
