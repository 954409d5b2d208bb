// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package wiregit

import (
	"sort"
	"strings"

	"github.com/aviator-co/wire-git/internal/push"
	"github.com/aviator-co/wire-git/protocol"
)

// An UpdateRefsError reports a push in which the server rejected one or more
// ref updates. It is the only partial-failure outcome: the pack transfer and
// any refs that did succeed are not rolled back.
type UpdateRefsError struct {
	// RefStatuses maps every requested ref name to its reported status,
	// including the ones that succeeded.
	RefStatuses map[string]protocol.RefStatus
}

// Error lists the failed ref names in ascending order, e.g.
// "refs/heads/branch, refs/heads/master failed to update".
func (e *UpdateRefsError) Error() string {
	var failed []string
	for name, status := range e.RefStatuses {
		if !status.OK() {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return strings.Join(failed, ", ") + " failed to update"
}

// refsError folds a push report into the caller-facing outcome: nil when
// every update was accepted, an UpdateRefsError when any ref was rejected,
// and a RemoteError when the pack itself failed to apply without any per-ref
// rejection to pin it on.
func refsError(updates []push.Update, report *protocol.ReportStatus) error {
	if report == nil {
		return nil
	}
	statuses := make(map[string]protocol.RefStatus, len(updates))
	for _, u := range updates {
		// Absence of a status line for a requested ref means it was accepted.
		statuses[u.Name] = protocol.RefStatus{Ref: u.Name}
	}
	failed := false
	for _, cmd := range report.Commands {
		statuses[cmd.Ref] = cmd
		if !cmd.OK() {
			failed = true
		}
	}
	if failed {
		return &UpdateRefsError{RefStatuses: statuses}
	}
	if !report.UnpackOK() {
		return &protocol.RemoteError{Msg: "unpack " + report.Unpack}
	}
	return nil
}
