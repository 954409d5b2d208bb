// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"io"
	"os"

	wiregit "github.com/aviator-co/wire-git"
	"github.com/aviator-co/wire-git/transport"
	"github.com/spf13/cobra"
)

type remoteArgs struct {
	host string
	port int
	path string
}

func (ra *remoteArgs) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.host, "host", "", "Remote host running a git daemon")
	cmd.Flags().IntVar(&ra.port, "port", transport.DefaultPort, "git daemon TCP port")
	cmd.Flags().StringVar(&ra.path, "path", "", "Repository path on the remote (e.g. /project.git)")
	cmd.MarkFlagRequired("host")
	cmd.MarkFlagRequired("path")
}

func (ra *remoteArgs) newClient(opts ...wiregit.Option) *wiregit.Client {
	opts = append([]wiregit.Option{wiregit.WithPort(ra.port)}, opts...)
	return wiregit.NewClient(ra.host, opts...)
}

func writeJSON(outputPath string, v any) error {
	var of io.Writer
	if outputPath == "-" {
		of = os.Stdout
	} else {
		file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer file.Close()
		of = file
	}
	enc := json.NewEncoder(of)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return nil
}
