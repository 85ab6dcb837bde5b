package main

import (
	"context"
	"os"
	"path/filepath"

	justina "github.com/Herwig9820/Justina-interpreter-sub002"
	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: viper.GetBool("no-color")}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newFiles() (*storage.Files, error) {
	root, err := homedir.Expand(viper.GetString("root"))
	if err != nil {
		return nil, err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return storage.NewOsFiles(root), nil
}

// Returns the options shared by every command.
func getJustinaOptions(dev console.Device) ([]justina.Option, error) {
	files, err := newFiles()
	if err != nil {
		return nil, err
	}
	return []justina.Option{
		justina.WithLogger(newLogger()),
		justina.WithConsole(dev),
		justina.WithFiles(files),
		justina.WithPrintResults(viper.GetBool("print-results")),
		justina.WithMaxEvalDepth(viper.GetInt("max-eval-depth")),
		justina.WithMaxFlowDepth(viper.GetInt("max-flow-depth")),
		justina.WithLastValues(viper.GetInt("last-values")),
	}, nil
}

// Creates a machine and loads the program named on the command line. The
// program file is read from the OS file system, not from file storage.
func newMachine(ctx context.Context, dev console.Device, args []string) (*vm.Machine, error) {
	opts, err := getJustinaOptions(dev)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		path, err := homedir.Expand(args[0])
		if err != nil {
			return nil, err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, justina.WithProgram(string(src)))
	}
	return justina.New(ctx, opts...)
}

func shouldRunRepl(cmd *cobra.Command) bool {
	if viper.GetBool("no-repl") {
		return false
	}
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		return false
	}
	return true
}
