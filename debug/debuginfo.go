// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package debug

type FetchDebugInfo struct {
	// Capabilities is the negotiated capability set for the fetch.
	Capabilities []string `json:"capabilities"`
	// WantCount is the number of objects requested from the remote.
	WantCount int `json:"wantCount"`
	// HaveCount is the number of have lines sent during negotiation.
	HaveCount int `json:"haveCount"`
	// PackfileSize is the size of the received packfile in bytes.
	PackfileSize int64 `json:"packfileSize"`
}

type PushCommandStatus struct {
	// Name is the name of the reference.
	Name string `json:"name"`
	// Status is "ok" or the server's rejection reason.
	Status string `json:"status"`
}

type PushDebugInfo struct {
	// Capabilities is the negotiated capability set for the push.
	Capabilities []string `json:"capabilities"`
	// PackfileSize is the size of the sent packfile in bytes.
	PackfileSize int64 `json:"packfileSize"`

	// UnpackStatus is the status sent from the server for unpacking the
	// packfile. Empty when report-status was not negotiated.
	UnpackStatus string `json:"unpackStatus"`
	// CommandStatuses is the status of each ref update sent to the server.
	CommandStatuses []*PushCommandStatus `json:"commandStatuses"`
}
