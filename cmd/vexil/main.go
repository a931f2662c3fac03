// vexil inspects properties overlays and bind audit trails.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/agilira/vexil/cmd/cli"
	"github.com/agilira/vexil/internal/logging"
)

func main() {
	logger, err := logging.New(os.Getenv("VEXIL_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	manager := cli.NewManager().WithLogger(logger)

	if err := manager.Run(os.Args[1:]); err != nil {
		_ = logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
