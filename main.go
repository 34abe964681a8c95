// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/recoord/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
