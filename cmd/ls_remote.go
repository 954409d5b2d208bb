// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	wiregit "github.com/aviator-co/wire-git"
	"github.com/spf13/cobra"
)

var lsRemoteArgs struct {
	remote   remoteArgs
	patterns []string

	outputFile string
}

var lsRemoteCmd = &cobra.Command{
	Use: "ls-remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := lsRemoteArgs.remote.newClient()
		refs, lsErr := client.LsRemote(cmd.Context(), lsRemoteArgs.remote.path, lsRemoteArgs.patterns...)
		if refs == nil {
			// Always create an empty slice for JSON output.
			refs = []*wiregit.RefInfo{}
		}
		output := lsRemoteOutput{Refs: refs}
		if lsErr != nil {
			output.Error = lsErr.Error()
		}
		if err := writeJSON(lsRemoteArgs.outputFile, output); err != nil {
			return err
		}
		return lsErr
	},
}

type lsRemoteOutput struct {
	Refs  []*wiregit.RefInfo `json:"refs"`
	Error string             `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(lsRemoteCmd)
	lsRemoteArgs.remote.registerFlags(lsRemoteCmd)
	lsRemoteCmd.Flags().StringSliceVar(&lsRemoteArgs.patterns, "ref-patterns", nil, "Glob patterns filtering ref names (e.g. refs/heads/**)")
	lsRemoteCmd.Flags().StringVar(&lsRemoteArgs.outputFile, "output-file", "-", "Optional output file path. '-', which is the default, means stdout")
}
