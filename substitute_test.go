package formulas_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/formulas"
)

func TestSubstitute(t *testing.T) {
	cases := []struct {
		name string
		text string
		b    formulas.Bindings
		want string
	}{
		{"none", "1+2", nil, "1+2"},
		{"vars", "[A]+[B]", formulas.Bindings{"A": "1", "B": "2"}, "1+2"},
		{"repeat", "[A][A]", formulas.Bindings{"A": "1"}, "11"},
		{"unbound", "[C]+1", formulas.Bindings{"A": "1"}, "[C]+1"},
		{"empty-name", "[]+1", formulas.Bindings{"": "9"}, "[]+1"},
		{"bools", "True or FALSE", nil, "1 or 0"},
		{"bool-words", "untrue falsehood", nil, "untrue falsehood"},
		{"bool-bound", "true+false", formulas.Bindings{"true": "5"}, "5+0"},
		{"bracket-bool", "[true]", nil, "1"},
		{"chain-forward", "[A]", formulas.Bindings{"A": "[B]", "B": "2"}, "2"},
		{"chain-backward", "[B]", formulas.Bindings{"A": "1", "B": "[A]"}, "[A]"},
	}
	e := formulas.New(formulas.WithLogger(slog.New(slog.DiscardHandler)))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, e.Substitute("test", c.text, c.b))
		})
	}
}

func TestSubstituteListener(t *testing.T) {
	var seen formulas.Bindings
	l := formulas.ListenerFunc(func(id string, b formulas.Bindings) error {
		assert.Equal(t, "price", id)
		seen = b
		b["Y"] = "3"
		b["X"] = "4"
		return nil
	})
	e := formulas.New(formulas.WithListener(l), formulas.WithLogger(slog.New(slog.DiscardHandler)))
	caller := formulas.Bindings{"X": "1"}
	assert.Equal(t, "4+3", e.Substitute("price", "[X]+[Y]", caller))
	assert.Equal(t, formulas.Bindings{"X": "1"}, caller, "caller's bindings changed")
	require.NotNil(t, seen)
	assert.Equal(t, "1", seen["true"])
	assert.Equal(t, "0", seen["false"])
}

func TestSubstituteListenerFailure(t *testing.T) {
	cases := []struct {
		name string
		l    formulas.Listener
	}{
		{"error", formulas.ListenerFunc(func(string, formulas.Bindings) error {
			return errors.New("no bindings today")
		})},
		{"panic", formulas.ListenerFunc(func(_ string, b formulas.Bindings) error {
			b["X"] = "7"
			panic("listener exploded")
		})},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := formulas.New(
				formulas.WithListener(c.l),
				formulas.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
			)
			got := e.Substitute("id", "[X]+1", formulas.Bindings{"X": "2"})
			assert.Contains(t, []string{"2+1", "7+1"}, got)
			assert.Contains(t, logs.String(), "binding listener failed")
		})
	}
}

func TestListeners(t *testing.T) {
	var order []string
	ls := formulas.Listeners{
		formulas.ListenerFunc(func(string, formulas.Bindings) error {
			order = append(order, "first")
			return errors.New("first failed")
		}),
		formulas.ListenerFunc(func(string, formulas.Bindings) error {
			order = append(order, "second")
			panic("second failed")
		}),
		formulas.ListenerFunc(func(_ string, b formulas.Bindings) error {
			order = append(order, "third")
			b["Z"] = "5"
			return nil
		}),
	}
	b := formulas.Bindings{}
	err := ls.Notify("id", b)
	require.Error(t, err)
	assert.ErrorContains(t, err, "first failed")
	assert.ErrorContains(t, err, "second failed")
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, "5", b["Z"])

	assert.NoError(t, formulas.Listeners{}.Notify("id", b))
}

func TestBindingsClone(t *testing.T) {
	var b formulas.Bindings
	c := b.Clone()
	require.NotNil(t, c)
	c["x"] = "1"
	b = formulas.Bindings{"x": "1"}
	c = b.Clone()
	c["x"] = "2"
	assert.Equal(t, "1", b["x"])
}
