package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/dis"
	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/parser"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dev := console.NewStdio(os.Stdin, os.Stdout)
	m, err := newMachine(ctx, dev, args)
	if err != nil {
		return err
	}
	defer m.Close()

	h := newHost(m, dev, useColor(), isTerminalIO())
	lines, _ := cmd.Flags().GetStringArray("code")
	for _, line := range lines {
		if h.runLine(ctx, line) {
			return nil
		}
	}
	if !shouldRunRepl(cmd) {
		return nil
	}
	return h.run(ctx)
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(format) {
	case "json":
		output, err := getOutputJSON(map[string]string{
			"version": version,
			"commit":  commit,
			"date":    date,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(output))
	case "text", "":
		fmt.Printf("justina %s (commit %s, built %s)\n", version, commit, date)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dev := console.NewStdio(os.Stdin, os.Stdout)
	m, err := newMachine(ctx, dev, args)
	if err != nil {
		return err
	}
	defer m.Close()

	h := newHost(m, dev, useColor(), false)
	lines, _ := cmd.Flags().GetStringArray("code")
	for _, line := range lines {
		if h.runLine(ctx, line) {
			break
		}
	}
	return printStats(m)
}

func printStats(m *vm.Machine) error {
	output, err := getOutputJSON(m.Stats())
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func runDis(cmd *cobra.Command, args []string) error {
	path, err := homedir.Expand(args[0])
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := parser.ParseProgram(context.Background(), string(src))
	if err != nil {
		fmt.Fprint(os.Stderr, errz.NewFormatter(useColor()).Format(err))
		return fmt.Errorf("%s: parse failed", path)
	}
	return dis.Print(dis.Disassemble(prog), os.Stdout)
}
