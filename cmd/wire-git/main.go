// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package main

import "github.com/aviator-co/wire-git/cmd"

func main() {
	cmd.Execute()
}
