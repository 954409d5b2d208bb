// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package protocol

import "fmt"

// A ProtocolError reports a line that could not be parsed under the smart
// protocol grammar. It indicates a version mismatch or stream corruption and
// is always fatal for the operation.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "git protocol error: " + e.Msg
}

func protocolErrorf(format string, a ...any) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, a...)}
}

// A RemoteError carries an error message sent explicitly by the peer, either
// as an ERR line or on side-band channel 3. The message is surfaced verbatim.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string {
	return "remote error: " + e.Msg
}
