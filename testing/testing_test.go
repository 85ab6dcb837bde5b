package testing

import (
	"bytes"
	"context"
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/Herwig9820/Justina-interpreter-sub002/object"
	"github.com/Herwig9820/Justina-interpreter-sub002/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const mathTests = `program mathTests;
function testAdd();
  cb("assertEq", 1 + 1, 2);
end;
function testFails();
  cb("assertEq", 2 * 2, 5, "bad product");
  cb("log", "after", 1);
end;
function testSkip();
  cb("skip", "not ready");
  cb("fail", "unreachable");
end;
function testError();
  print 1 / 0;
end;
function helper(a);
  return a;
end;
`

const otherTests = `program other;
function testPrint();
  print "hi";
  cb("assert", 1);
  cb("assertNe", "a", "b");
end;
`

func newFiles(t *testing.T) *storage.Files {
	t.Helper()
	fs := afero.NewMemMapFs()
	write := func(name, content string) {
		require.Nil(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	write("/math_test.jus", mathTests)
	write("/broken_test.jus", "function (;")
	write("/sub/other_test.jus", otherTests)
	write("/sub/notes.txt", "not a test")
	return storage.New(fs)
}

func findTest(t *testing.T, file *FileResult, name string) *TestResult {
	t.Helper()
	for _, r := range file.Tests {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("test %s not found", name)
	return nil
}

func TestDiscoverTestFiles(t *testing.T) {
	fs := newFiles(t).Fs()

	files, err := DiscoverTestFiles(fs, nil)
	require.Nil(t, err)
	require.Equal(t, []string{"/broken_test.jus", "/math_test.jus"}, files)

	files, err = DiscoverTestFiles(fs, []string{"/..."})
	require.Nil(t, err)
	require.ElementsMatch(t, []string{"/broken_test.jus", "/math_test.jus", "/sub/other_test.jus"}, files)

	files, err = DiscoverTestFiles(fs, []string{"/sub/*", "/sub/other_test.jus"})
	require.Nil(t, err)
	require.Equal(t, []string{"/sub/other_test.jus"}, files)

	_, err = DiscoverTestFiles(fs, []string{"/missing"})
	require.NotNil(t, err)
}

func TestRun(t *testing.T) {
	summary, err := Run(context.Background(), &Config{Files: newFiles(t), Patterns: []string{"/math_test.jus"}})
	require.Nil(t, err)
	require.Len(t, summary.Files, 1)
	file := summary.Files[0]
	require.Nil(t, file.ParseErr)
	require.Len(t, file.Tests, 4)

	require.Equal(t, StatusPassed, findTest(t, file, "testAdd").Status)

	failed := findTest(t, file, "testFails")
	require.Equal(t, StatusFailed, failed.Status)
	require.Len(t, failed.Failures, 1)
	f := failed.Failures[0]
	require.Equal(t, "bad product", f.Message)
	require.Equal(t, 6, f.Line)
	require.Equal(t, object.NewLong(4), *f.Got)
	require.Equal(t, object.NewLong(5), *f.Want)
	require.Equal(t, []string{"after 1"}, failed.Logs)

	skipped := findTest(t, file, "testSkip")
	require.Equal(t, StatusSkipped, skipped.Status)
	require.Equal(t, "not ready", skipped.SkipReason)
	require.Empty(t, skipped.Failures)

	errored := findTest(t, file, "testError")
	require.Equal(t, StatusError, errored.Status)
	require.True(t, errz.Is(errored.Error, errz.ErrDivByZero))

	require.Equal(t, 1, summary.Passed)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 1, summary.Errors)
	require.Equal(t, 4, summary.TotalTests())
	require.False(t, summary.Success())
}

func TestRunPattern(t *testing.T) {
	summary, err := Run(context.Background(), &Config{
		Files:      newFiles(t),
		Patterns:   []string{"/..."},
		RunPattern: "Add|Print",
	})
	require.Nil(t, err)
	require.Equal(t, 2, summary.Passed)
	require.Equal(t, 2, summary.TotalTests())
	require.False(t, summary.Success(), "broken file fails the run")

	_, err = Run(context.Background(), &Config{Files: newFiles(t), RunPattern: "("})
	require.NotNil(t, err)
}

func TestParseError(t *testing.T) {
	summary, err := Run(context.Background(), &Config{Files: newFiles(t), Patterns: []string{"/broken_test.jus"}})
	require.Nil(t, err)
	require.NotNil(t, summary.Files[0].ParseErr)
	require.Empty(t, summary.Files[0].Tests)
	require.False(t, summary.Success())
}

func TestOutput(t *testing.T) {
	summary, err := Run(context.Background(), &Config{Files: newFiles(t), Patterns: []string{"/math_test.jus", "/sub/other_test.jus"}})
	require.Nil(t, err)

	var buf bytes.Buffer
	NewOutput(OutputConfig{Writer: &buf, Verbose: true}).PrintResults(summary)
	out := buf.String()
	require.Contains(t, out, "=== RUN   testAdd\n--- PASS: testAdd")
	require.Contains(t, out, "    /math_test.jus:6: bad product\n")
	require.Contains(t, out, "        got:  4\n")
	require.Contains(t, out, "        want: 5\n")
	require.Contains(t, out, "--- SKIP: testSkip")
	require.Contains(t, out, "    not ready\n")
	require.Contains(t, out, "--- ERROR: testError")
	require.Contains(t, out, "    hi\n")
	require.Contains(t, out, "FAIL\n2 passed, 1 failed, 1 skipped, 1 errors\n")
}

func TestRequiresStorage(t *testing.T) {
	_, err := Run(context.Background(), &Config{})
	require.NotNil(t, err)
}
