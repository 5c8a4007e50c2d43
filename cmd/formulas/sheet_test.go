package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/formulas"
)

const testSheet = `
bindings:
  base: "5"
formulas:
  - name: threshold
    formula: "[base]*2"
  - name: margin
    formula: "[threshold]+1"
  - name: mode
    formula: "if([margin]>10?true:false)"
`

func TestParseSheet(t *testing.T) {
	s, err := parseSheet([]byte(testSheet))
	require.NoError(t, err)
	assert.Equal(t, formulas.Bindings{"base": "5"}, s.Bindings)
	require.Len(t, s.Formulas, 3)
	assert.Equal(t, entry{Name: "threshold", Formula: "[base]*2"}, s.Formulas[0])
}

func TestParseSheetInvalid(t *testing.T) {
	cases := []struct {
		name string
		src  string
		// invalid is true if the sheet fails validation rather than decoding
		// or the duplicate check.
		invalid bool
	}{
		{"yaml", "formulas: [", false},
		{"no-formulas", "bindings: {a: '1'}", true},
		{"empty-formulas", "formulas: []", true},
		{"no-name", "formulas: [{formula: '1'}]", true},
		{"no-formula", "formulas: [{name: a}]", true},
		{"bracket-name", "formulas: [{name: 'a[b', formula: '1'}]", true},
		{"duplicate", "formulas: [{name: a, formula: '1'}, {name: a, formula: '2'}]", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parseSheet([]byte(c.src))
			require.Error(t, err)
			var verr validator.ValidationErrors
			assert.Equal(t, c.invalid, errors.As(err, &verr), "%v", err)
		})
	}
}

func TestSheetEval(t *testing.T) {
	s, err := parseSheet([]byte(testSheet))
	require.NoError(t, err)
	e := formulas.New(formulas.WithLogger(slog.New(slog.DiscardHandler)))
	r := s.Eval(e)
	assert.Equal(t, []result{{"threshold", 10}, {"margin", 11}, {"mode", 1}}, r)
	// The sheet's own bindings are not changed.
	assert.Equal(t, formulas.Bindings{"base": "5"}, s.Bindings)
}

func TestLoadSheet(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "sheet.yaml")
	require.NoError(t, os.WriteFile(name, []byte(testSheet), 0o644))
	s, err := loadSheet(name)
	require.NoError(t, err)
	assert.Len(t, s.Formulas, 3)

	_, err = loadSheet(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("formulas: []"), 0o644))
	_, err = loadSheet(bad)
	assert.ErrorContains(t, err, bad)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "sheet.yaml")
	require.NoError(t, os.WriteFile(name, []byte(testSheet), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, name, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()
	// The watcher may not be ready for the first writes, so keep writing.
	// Writes to other files in the directory must not count.
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(5 * time.Second)
loop:
	for {
		select {
		case <-changed:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), nil, 0o644))
			require.NoError(t, os.WriteFile(name, []byte(testSheet), 0o644))
		case <-timeout:
			t.Fatal("no change seen")
		}
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
