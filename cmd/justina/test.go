package main

import (
	"context"
	"fmt"
	"os"

	jtesting "github.com/Herwig9820/Justina-interpreter-sub002/testing"
	"github.com/spf13/cobra"
)

func runTest(cmd *cobra.Command, args []string) error {
	files, err := newFiles()
	if err != nil {
		return err
	}
	runPattern, _ := cmd.Flags().GetString("run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	summary, err := jtesting.Run(context.Background(), &jtesting.Config{
		Files:      files,
		Patterns:   args,
		RunPattern: runPattern,
	})
	if err != nil {
		return err
	}
	jtesting.NewOutput(jtesting.OutputConfig{
		Writer:   os.Stdout,
		Verbose:  verbose,
		UseColor: useColor(),
	}).PrintResults(summary)
	if !summary.Success() {
		return fmt.Errorf("%d of %d tests did not pass", summary.Failed+summary.Errors, summary.TotalTests())
	}
	return nil
}
