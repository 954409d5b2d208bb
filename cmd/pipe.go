// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wiregit "github.com/aviator-co/wire-git"
)

var pipeArg struct {
	command    string
	inputFile  string
	outputFile string
}

var pipeCmd = &cobra.Command{
	Use: "pipe",
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader
		if pipeArg.inputFile == "-" {
			in = os.Stdin
		} else {
			file, err := os.Open(pipeArg.inputFile)
			if err != nil {
				return err
			}
			defer file.Close()
			in = file
		}
		dec := json.NewDecoder(in)

		ctx := cmd.Context()
		switch pipeArg.command {
		case "update-refs":
			input := wiregit.UpdateRefsArgs{}
			if err := dec.Decode(&input); err != nil {
				return err
			}
			output := wiregit.UpdateRefs(ctx, input)
			return writeJSON(pipeArg.outputFile, output)
		case "ls-remote":
			input := lsRemotePipeArgs{}
			if err := dec.Decode(&input); err != nil {
				return err
			}
			client := wiregit.NewClient(input.Host, portOption(input.Port)...)
			refs, lsErr := client.LsRemote(ctx, input.Path, input.RefPatterns...)
			if refs == nil {
				refs = []*wiregit.RefInfo{}
			}
			output := lsRemoteOutput{Refs: refs}
			if lsErr != nil {
				output.Error = lsErr.Error()
			}
			return writeJSON(pipeArg.outputFile, output)
		}
		return fmt.Errorf("unknown command: %s", pipeArg.command)
	},
}

type lsRemotePipeArgs struct {
	Host        string   `json:"host"`
	Port        int      `json:"port,omitempty"`
	Path        string   `json:"path"`
	RefPatterns []string `json:"refPatterns,omitempty"`
}

func portOption(port int) []wiregit.Option {
	if port == 0 {
		return nil
	}
	return []wiregit.Option{wiregit.WithPort(port)}
}

func init() {
	rootCmd.AddCommand(pipeCmd)
	pipeCmd.Flags().StringVar(&pipeArg.command, "command", "", "Command to execute")
	pipeCmd.MarkFlagRequired("command")
	pipeCmd.Flags().StringVar(&pipeArg.inputFile, "input-file", "-", "Input file path. '-', which is the default, means stdin")
	pipeCmd.Flags().StringVar(&pipeArg.outputFile, "output-file", "-", "Optional output file path. '-', which is the default, means stdout")
}
