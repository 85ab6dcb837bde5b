// Package testing runs test functions found in Justina program files.
//
// A test file is a program whose name ends in _test.jus. Every function
// whose name starts with "test" and takes no arguments is a test. Tests
// report through native callbacks:
//
//	cb("assert", cond [, message])
//	cb("assertEq", got, want [, message])
//	cb("assertNe", got, want [, message])
//	cb("fail", message)
//	cb("skip", reason)
//	cb("log", value...)
package testing

import (
	"time"

	"github.com/Herwig9820/Justina-interpreter-sub002/object"
)

// Status represents the outcome of a test.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
	StatusError
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "PASS"
	case StatusFailed:
		return "FAIL"
	case StatusSkipped:
		return "SKIP"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AssertionError represents a failed assertion in a test.
type AssertionError struct {
	Message string        // Description of the failure
	File    string        // Source filename
	Line    int           // Line of the statement that failed
	Got     *object.Value // Actual value (may be nil)
	Want    *object.Value // Expected value (may be nil)
}

// TestResult holds the outcome of a single test function.
type TestResult struct {
	Name       string
	Status     Status
	Duration   time.Duration
	Failures   []AssertionError
	Logs       []string
	SkipReason string
	Error      error // set when Status == StatusError
}

// FileResult holds the results of all tests in a single file.
type FileResult struct {
	Filename string
	Tests    []*TestResult
	ParseErr error // set if the file failed to parse
}

func (f *FileResult) count(status Status) int {
	n := 0
	for _, t := range f.Tests {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Passed returns the number of passed tests in this file.
func (f *FileResult) Passed() int { return f.count(StatusPassed) }

// Failed returns the number of failed tests in this file.
func (f *FileResult) Failed() int { return f.count(StatusFailed) }

// Skipped returns the number of skipped tests in this file.
func (f *FileResult) Skipped() int { return f.count(StatusSkipped) }

// Errors returns the number of errored tests in this file.
func (f *FileResult) Errors() int { return f.count(StatusError) }

// Summary aggregates results across all test files.
type Summary struct {
	Files    []*FileResult
	Passed   int
	Failed   int
	Skipped  int
	Errors   int
	Duration time.Duration
}

// TotalTests returns the total number of tests run.
func (s *Summary) TotalTests() int {
	return s.Passed + s.Failed + s.Skipped + s.Errors
}

// Success returns true if all tests passed and every file parsed.
func (s *Summary) Success() bool {
	for _, f := range s.Files {
		if f.ParseErr != nil {
			return false
		}
	}
	return s.Failed == 0 && s.Errors == 0
}

// ComputeTotals recalculates the aggregate counts from all file results.
func (s *Summary) ComputeTotals() {
	s.Passed, s.Failed, s.Skipped, s.Errors = 0, 0, 0, 0
	for _, f := range s.Files {
		s.Passed += f.Passed()
		s.Failed += f.Failed()
		s.Skipped += f.Skipped()
		s.Errors += f.Errors()
	}
}
