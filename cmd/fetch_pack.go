// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package cmd

import (
	"io"
	"os"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	wiregit "github.com/aviator-co/wire-git"
	"github.com/aviator-co/wire-git/debug"
	"github.com/aviator-co/wire-git/gitstore"
)

var fetchPackArgs struct {
	remote remoteArgs

	packOutputFile string
	outputFile     string
}

var fetchPackCmd = &cobra.Command{
	Use: "fetch-pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := fetchPackArgs.remote.newClient(wiregit.WithProgress(os.Stderr))
		repo := gitstore.NewRepository()
		refs, debugInfo, fetchErr := client.Fetch(cmd.Context(), fetchPackArgs.remote.path, repo)

		output := fetchPackOutput{
			Refs:           map[string]string{},
			FetchDebugInfo: debugInfo,
		}
		for name, id := range refs {
			output.Refs[name] = id.String()
		}
		if fetchErr == nil && fetchPackArgs.packOutputFile != "" {
			wiregit.ApplyRefs(repo, refs)
			if err := writePackfile(repo, refs, fetchPackArgs.packOutputFile); err != nil {
				return err
			}
		}
		if fetchErr != nil {
			output.Error = fetchErr.Error()
		}
		if err := writeJSON(fetchPackArgs.outputFile, output); err != nil {
			return err
		}
		return fetchErr
	},
}

// writePackfile re-encodes everything reachable from the fetched refs into a
// standalone packfile on disk.
func writePackfile(repo *gitstore.Repository, refs wiregit.RefSet, path string) error {
	seen := make(map[plumbing.Hash]bool)
	var tips []plumbing.Hash
	for _, id := range refs {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			tips = append(tips, id)
		}
	}
	pack, err := repo.GeneratePackContents(nil, tips)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, pack)
	return err
}

type fetchPackOutput struct {
	Refs           map[string]string     `json:"refs"`
	FetchDebugInfo *debug.FetchDebugInfo `json:"fetchDebugInfo"`
	Error          string                `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(fetchPackCmd)
	fetchPackArgs.remote.registerFlags(fetchPackCmd)
	fetchPackCmd.Flags().StringVar(&fetchPackArgs.packOutputFile, "pack-output-file", "", "Optional path to write the fetched objects as a packfile")
	fetchPackCmd.Flags().StringVar(&fetchPackArgs.outputFile, "output-file", "-", "Optional output file path. '-', which is the default, means stdout")
}
