// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	wiregit "github.com/aviator-co/wire-git"
)

var updateRefsArgs struct {
	remote  remoteArgs
	updates []string

	outputFile string
}

var updateRefsCmd = &cobra.Command{
	Use: "update-refs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var commands []wiregit.RefUpdateCommand
		for _, spec := range updateRefsArgs.updates {
			command, err := parseUpdateSpec(spec)
			if err != nil {
				return err
			}
			commands = append(commands, command)
		}
		output := wiregit.UpdateRefs(cmd.Context(), wiregit.UpdateRefsArgs{
			Host:              updateRefsArgs.remote.host,
			Port:              updateRefsArgs.remote.port,
			Path:              updateRefsArgs.remote.path,
			RefUpdateCommands: commands,
		})
		if err := writeJSON(updateRefsArgs.outputFile, output); err != nil {
			return err
		}
		if output.Error != "" {
			return fmt.Errorf("update-refs: %s", output.Error)
		}
		return nil
	},
}

// parseUpdateSpec parses "refname=oldhash:newhash". An empty oldhash means
// "whatever the remote advertises".
func parseUpdateSpec(spec string) (wiregit.RefUpdateCommand, error) {
	name, hashes, ok := strings.Cut(spec, "=")
	if !ok {
		return wiregit.RefUpdateCommand{}, fmt.Errorf("malformed update %q, want refname=oldhash:newhash", spec)
	}
	old, new, ok := strings.Cut(hashes, ":")
	if !ok {
		return wiregit.RefUpdateCommand{}, fmt.Errorf("malformed update %q, want refname=oldhash:newhash", spec)
	}
	return wiregit.RefUpdateCommand{RefName: name, OldHash: old, NewHash: new}, nil
}

func init() {
	rootCmd.AddCommand(updateRefsCmd)
	updateRefsArgs.remote.registerFlags(updateRefsCmd)
	updateRefsCmd.Flags().StringArrayVar(&updateRefsArgs.updates, "update", nil, "Ref update as refname=oldhash:newhash (repeatable)")
	updateRefsCmd.MarkFlagRequired("update")
	updateRefsCmd.Flags().StringVar(&updateRefsArgs.outputFile, "output-file", "-", "Optional output file path. '-', which is the default, means stdout")
}
