package testing

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	justina "github.com/Herwig9820/Justina-interpreter-sub002"
	"github.com/Herwig9820/Justina-interpreter-sub002/console"
	"github.com/Herwig9820/Justina-interpreter-sub002/parser"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/spf13/afero"
)

// Config holds configuration for running tests.
type Config struct {
	// Files is the storage test files are read from. Tests also run with
	// it as their file storage.
	Files *storage.Files

	// Patterns specifies files or directories to search for tests.
	// Default is the storage root.
	Patterns []string

	// RunPattern filters tests to run by name regex.
	RunPattern string
}

// DiscoverTestFiles finds all *_test.jus files matching the given patterns.
// A pattern is a file, a directory, a directory followed by "/..." for a
// recursive search, or a glob.
func DiscoverTestFiles(fs afero.Fs, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"/"}
	}

	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if isTestFile(p) && !seen[p] {
			files = append(files, p)
			seen[p] = true
		}
	}

	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[") {
			matches, err := afero.Glob(fs, pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		recursive := false
		searchDir := pattern
		if strings.HasSuffix(pattern, "...") {
			recursive = true
			searchDir = strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
			if searchDir == "" || searchDir == "." {
				searchDir = "/"
			}
		}

		info, err := fs.Stat(searchDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path not found: %s", searchDir)
			}
			return nil, err
		}
		switch {
		case !info.IsDir():
			add(pattern)
		case recursive:
			err = afero.Walk(fs, searchDir, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		default:
			entries, err := afero.ReadDir(fs, searchDir)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() {
					add(path.Join(searchDir, e.Name()))
				}
			}
		}
	}
	return files, nil
}

func isTestFile(p string) bool {
	return strings.HasSuffix(p, "_test.jus")
}

// DiscoverTestFunctions finds the test functions of a program: functions
// named test... that can be called without arguments.
func DiscoverTestFunctions(prog *parser.Program) []string {
	var tests []string
	for _, fn := range prog.Functions {
		if strings.HasPrefix(fn.Name, "test") && fn.MinParams == 0 {
			tests = append(tests, fn.Name)
		}
	}
	return tests
}

// Run executes tests according to the given configuration.
func Run(ctx context.Context, cfg *Config) (*Summary, error) {
	if cfg == nil || cfg.Files == nil {
		return nil, fmt.Errorf("testing: no file storage configured")
	}
	files, err := DiscoverTestFiles(cfg.Files.Fs(), cfg.Patterns)
	if err != nil {
		return nil, err
	}

	var runRe *regexp.Regexp
	if cfg.RunPattern != "" {
		runRe, err = regexp.Compile(cfg.RunPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid run pattern: %w", err)
		}
	}

	summary := &Summary{}
	start := time.Now()
	for _, file := range files {
		summary.Files = append(summary.Files, runTestFile(ctx, cfg.Files, file, runRe))
	}
	summary.Duration = time.Since(start)
	summary.ComputeTotals()
	return summary, nil
}

func runTestFile(ctx context.Context, files *storage.Files, filename string, runRe *regexp.Regexp) *FileResult {
	result := &FileResult{Filename: filename}

	source, err := files.ReadFile(filename)
	if err != nil {
		result.ParseErr = err
		return result
	}
	prog, err := parser.ParseProgram(ctx, source)
	if err != nil {
		result.ParseErr = err
		return result
	}

	for _, name := range DiscoverTestFunctions(prog) {
		if runRe != nil && !runRe.MatchString(name) {
			continue
		}
		result.Tests = append(result.Tests, runSingleTest(ctx, files, filename, source, name))
	}
	return result
}

// runSingleTest calls one test function on a fresh machine.
func runSingleTest(ctx context.Context, files *storage.Files, filename, source, name string) *TestResult {
	result := &TestResult{Name: name}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	testCtx := NewTestContext(name, filename, source)
	out := console.NewBuffer("")
	m, err := justina.New(ctx,
		justina.WithProgram(source),
		justina.WithCallbacks(testCtx.Callbacks()),
		justina.WithObserver(testCtx),
		justina.WithConsole(out),
		justina.WithFiles(files),
	)
	if err != nil {
		result.Status = StatusError
		result.Error = err
		return result
	}
	defer m.Reset()

	_, err = m.Exec(ctx, name+"()")
	for _, line := range strings.Split(strings.TrimRight(out.Output(), "\n"), "\n") {
		if line != "" {
			result.Logs = append(result.Logs, line)
		}
	}
	result.Logs = append(result.Logs, testCtx.Logs()...)
	result.Failures = testCtx.Failures()

	switch {
	case testCtx.Skipped():
		result.Status = StatusSkipped
		result.SkipReason = testCtx.SkipReason()
	case err != nil:
		result.Status = StatusError
		result.Error = err
	case testCtx.Failed():
		result.Status = StatusFailed
	default:
		result.Status = StatusPassed
	}
	return result
}
