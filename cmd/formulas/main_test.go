package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/formulas"
)

// run executes the command line with the given arguments and returns what it
// wrote to standard output and standard error.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errs bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errs)
	err = cmd.Execute()
	return out.String(), errs.String(), err
}

func TestEvalCommand(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"eval", "2+3*4"}, "20\n"},
		{"many", []string{"eval", "2+3*4", "2+(3*4)"}, "20\n14\n"},
		{"set", []string{"eval", "--set", "X=5", "[X]*2"}, "10\n"},
		{"set-spaces", []string{"eval", "--set", " X = 5 ", "[X]*2"}, "10\n"},
		{"bool", []string{"eval", "true+1"}, "2\n"},
		{"fmt", []string{"eval", "--fmt", "%.2f", "1/3"}, "0.33\n"},
		{"echo", []string{"eval", "--echo", "2+3*4"}, "(2 +3 *4) : 20\n"},
		{"bounded", []string{"eval", "--cache-size", "8", "2+3*4", "2+3*4"}, "20\n20\n"},
		{"malformed", []string{"eval", "2+(3*4"}, "0\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, _, err := run(t, c.args...)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestEvalCommandLogs(t *testing.T) {
	_, logs, err := run(t, "eval", "--id", "total", "2+(3*4")
	require.NoError(t, err)
	assert.Contains(t, logs, "formula failed")
	assert.Contains(t, logs, "identifier=total")

	_, logs, err = run(t, "eval", "--log-level", "error", "sqrt(4)")
	require.NoError(t, err)
	assert.NotContains(t, logs, "unknown function")
}

func TestEvalCommandStats(t *testing.T) {
	out, _, err := run(t, "eval", "--stats", "2+3*4", "2+3*4")
	require.NoError(t, err)
	assert.Contains(t, out, "formula_cache_lookups_total{result=hit} 1\n")
	assert.Contains(t, out, "formula_cache_lookups_total{result=miss} 1\n")
	assert.Contains(t, out, "formula_cache_stores_total 1\n")
}

func TestCommandErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no-args", []string{"eval"}},
		{"bad-set", []string{"eval", "--set", "X", "[X]"}},
		{"bad-level", []string{"eval", "--log-level", "loud", "1"}},
		{"subst-bad-set", []string{"subst", "--set", "X", "[X]"}},
		{"run-missing", []string{"run", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"run-args", []string{"run"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := run(t, c.args...)
			assert.Error(t, err)
		})
	}
}

func TestSubstCommand(t *testing.T) {
	out, _, err := run(t, "subst", "--set", "A=1", "--set", "B=2", "[A]+[B]*true", "false")
	require.NoError(t, err)
	assert.Equal(t, "1+2*1\n0\n", out)
}

func TestRunCommand(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sheet.yaml")
	require.NoError(t, os.WriteFile(name, []byte(testSheet), 0o644))
	out, _, err := run(t, "run", name)
	require.NoError(t, err)
	assert.Equal(t, "threshold = 10\nmargin = 11\nmode = 1\n", out)

	// Flags override the sheet's bindings.
	out, _, err = run(t, "run", "--set", "base=1", name)
	require.NoError(t, err)
	assert.Equal(t, "threshold = 2\nmargin = 3\nmode = 0\n", out)
}

func TestBindings(t *testing.T) {
	b, err := bindings([]string{"a=1", "b = x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, formulas.Bindings{"a": "1", "b": "x=y", "c": ""}, b)
	_, err = bindings([]string{"a"})
	assert.Error(t, err)
}
