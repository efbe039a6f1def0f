// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/output"
	"github.com/vulntor/scanbridge/pkg/output/subscribers"
)

// setupOutputPipeline creates the diagnostic pipeline for a command.
//
//   - -v/-vv/-vvv: step diagnostics (verbose/debug/trace) on stderr
//   - warnings are always shown on stderr
//   - structured output (json/yaml) keeps diagnostics uncolored
func setupOutputPipeline(cmd *cobra.Command) output.Output {
	stream := output.NewOutputEventStream()

	outputMode, _ := cmd.Flags().GetString("output")
	verbosityCount, _ := cmd.Flags().GetCount("verbosity")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level := output.OutputLevel(verbosityCount)
	if level > output.LevelTrace {
		level = output.LevelTrace
	}
	structured := format.ParseMode(outputMode) != format.ModeTable
	colorEnabled := !noColor && !structured && !color.NoColor

	stream.Subscribe(subscribers.NewDiagnosticSubscriber(level, cmd.ErrOrStderr(), colorEnabled))

	return output.NewDefaultOutput(stream)
}
