package testing

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// OutputConfig configures output formatting.
type OutputConfig struct {
	Writer io.Writer

	// Verbose shows logs for all tests, not only failed ones.
	Verbose bool

	UseColor bool
}

// Output prints test results in the style of go test.
type Output struct {
	w        io.Writer
	verbose  bool
	useColor bool
}

// NewOutput creates a new Output formatter.
func NewOutput(cfg OutputConfig) *Output {
	return &Output{w: cfg.Writer, verbose: cfg.Verbose, useColor: cfg.UseColor}
}

var (
	colorPass = color.New(color.FgGreen)
	colorFail = color.New(color.FgRed)
	colorSkip = color.New(color.FgYellow)
)

func (o *Output) colorize(c *color.Color, s string) string {
	if !o.useColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// StartTest prints the "=== RUN" line for a test.
func (o *Output) StartTest(name string) {
	fmt.Fprintf(o.w, "=== RUN   %s\n", name)
}

// EndTest prints the result line for a test and its details.
func (o *Output) EndTest(result *TestResult) {
	var status string
	switch result.Status {
	case StatusPassed:
		status = o.colorize(colorPass, "--- PASS:")
	case StatusFailed:
		status = o.colorize(colorFail, "--- FAIL:")
	case StatusSkipped:
		status = o.colorize(colorSkip, "--- SKIP:")
	default:
		status = o.colorize(colorFail, "--- ERROR:")
	}
	fmt.Fprintf(o.w, "%s %s (%.3fs)\n", status, result.Name, result.Duration.Seconds())

	if result.Status == StatusSkipped && result.SkipReason != "" {
		fmt.Fprintf(o.w, "    %s\n", result.SkipReason)
	}
	if result.Status == StatusError && result.Error != nil {
		fmt.Fprintf(o.w, "    %s\n", result.Error.Error())
	}
	for i := range result.Failures {
		o.printFailure(&result.Failures[i])
	}
	if o.verbose || result.Status == StatusFailed || result.Status == StatusError {
		for _, log := range result.Logs {
			fmt.Fprintf(o.w, "    %s\n", log)
		}
	}
}

func (o *Output) printFailure(f *AssertionError) {
	loc := ""
	if f.File != "" {
		loc = f.File
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		loc += ": "
	}
	fmt.Fprintf(o.w, "    %s%s\n", loc, f.Message)
	if f.Got != nil {
		fmt.Fprintf(o.w, "        %s:  %s\n", o.colorize(colorFail, "got"), f.Got.Quoted())
	}
	if f.Want != nil {
		fmt.Fprintf(o.w, "        %s: %s\n", o.colorize(colorPass, "want"), f.Want.Quoted())
	}
}

// ParseError prints the parse error of a test file.
func (o *Output) ParseError(filename string, err error) {
	fmt.Fprintf(o.w, "%s %s\n", o.colorize(colorFail, "PARSE ERROR:"), filename)
	fmt.Fprintf(o.w, "    %s\n", err.Error())
}

// Summary prints the final summary lines.
func (o *Output) Summary(summary *Summary) {
	fmt.Fprintln(o.w)
	if summary.Success() {
		fmt.Fprintln(o.w, o.colorize(colorPass, "PASS"))
	} else {
		fmt.Fprintln(o.w, o.colorize(colorFail, "FAIL"))
	}

	var parts []string
	if summary.Passed > 0 {
		parts = append(parts, o.colorize(colorPass, fmt.Sprintf("%d passed", summary.Passed)))
	}
	if summary.Failed > 0 {
		parts = append(parts, o.colorize(colorFail, fmt.Sprintf("%d failed", summary.Failed)))
	}
	if summary.Skipped > 0 {
		parts = append(parts, o.colorize(colorSkip, fmt.Sprintf("%d skipped", summary.Skipped)))
	}
	if summary.Errors > 0 {
		parts = append(parts, o.colorize(colorFail, fmt.Sprintf("%d errors", summary.Errors)))
	}
	if len(parts) > 0 {
		fmt.Fprintln(o.w, strings.Join(parts, ", "))
	}
}

// PrintResults prints all results.
func (o *Output) PrintResults(summary *Summary) {
	for _, file := range summary.Files {
		if file.ParseErr != nil {
			o.ParseError(file.Filename, file.ParseErr)
		}
	}
	for _, file := range summary.Files {
		for _, test := range file.Tests {
			o.StartTest(test.Name)
			o.EndTest(test)
		}
	}
	o.Summary(summary)
}
