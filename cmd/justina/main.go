package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/vm"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "justina [program-file]",
	Short: "Interactive interpreter with a built-in program debugger",
	Long: `Justina runs immediate-mode lines against a loaded program.

Without -c and with a terminal attached, an interactive prompt is started.
Program functions are called from immediate mode; "stop;" in a program
hands control to the debugger prompt.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

var statsCmd = &cobra.Command{
	Use:   "stats [program-file]",
	Short: "Run lines and print a snapshot of the machine state as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var disCmd = &cobra.Command{
	Use:   "dis program-file",
	Short: "List the token stream of a program",
	Args:  cobra.ExactArgs(1),
	RunE:  runDis,
}

var testCmd = &cobra.Command{
	Use:   "test [patterns...]",
	Short: "Run the test functions of *_test.jus programs in file storage",
	RunE:  runTest,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.justina.yaml)")
	pf.String("root", ".", "directory used as file storage")
	pf.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.Bool("no-color", false, "disable colored output")
	pf.Bool("print-results", true, "print the result of immediate-mode expressions")
	pf.Int("max-eval-depth", vm.DefaultMaxEvalDepth, "maximum eval() nesting")
	pf.Int("max-flow-depth", vm.DefaultMaxFlowDepth, "maximum nested calls and blocks")
	pf.Int("last-values", vm.DefaultLastValues, "size of the last-value history")
	pf.StringArrayP("code", "c", nil, "immediate-mode line to run (repeatable)")
	pf.Bool("no-repl", false, "do not start the interactive prompt")

	for _, name := range []string{"root", "log-level", "no-color", "print-results", "max-eval-depth", "max-flow-depth", "last-values", "no-repl"} {
		cobra.CheckErr(viper.BindPFlag(name, pf.Lookup(name)))
	}

	versionCmd.Flags().StringP("output", "o", "text", "output format (json, text)")
	testCmd.Flags().StringP("run", "r", "", "run only tests matching this pattern")
	testCmd.Flags().BoolP("verbose", "v", false, "show logs of passing tests")
	rootCmd.AddCommand(versionCmd, statsCmd, disCmd, testCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".justina")
	}
	viper.SetEnvPrefix("justina")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil && viper.GetString("log-level") == "debug" {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
	processGlobalFlags()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
