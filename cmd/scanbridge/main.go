// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Command scanbridge imports vulnerability scan results into Paramify.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vulntor/scanbridge/cmd/scanbridge/commands"
)

// Exit codes:
//   - 0: Success
//   - 1: General error (rejected upload, export timeout)
//   - 2: Invalid usage/input or missing configuration
//   - 4: Scan, assessment or file not found
//   - 7: Backend unreachable or malformed response
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd := commands.NewCommand()
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(commands.ExitCode(err))
	}
}
