package formulas

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Bindings maps variable names to the text which replaces them. A formula
// refers to a variable as [name].
type Bindings map[string]string

// Clone returns a copy of b. The copy of a nil Bindings is empty, not nil.
func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b)+2)
	for k, v := range b {
		c[k] = v
	}
	return c
}

// names returns the non-empty variable names in b in ascending order.
func (b Bindings) names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		if k != "" {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}

// Listener is notified before variables are substituted into a formula. It
// may add or change bindings. An error or panic from a listener is logged and
// otherwise ignored.
type Listener interface {
	Notify(identifier string, b Bindings) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(identifier string, b Bindings) error

// Notify calls f.
func (f ListenerFunc) Notify(identifier string, b Bindings) error {
	return f(identifier, b)
}

// Listeners notifies each of several listeners in order. A failure of one
// listener does not prevent the others from running; the result joins their
// errors.
type Listeners []Listener

// Notify notifies each listener.
func (ls Listeners) Notify(identifier string, b Bindings) error {
	var errs []error
	for _, l := range ls {
		if err := notify(l, identifier, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify calls a listener, converting a panic into an error.
func notify(l Listener, identifier string, b Bindings) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.Notify(identifier, b)
}

var (
	trueword  = regexp.MustCompile(`(?i)\btrue\b`)
	falseword = regexp.MustCompile(`(?i)\bfalse\b`)
)

// replace substitutes bindings into text. Bracketed names are replaced in
// ascending name order, then the words true and false.
//
// The replacement is purely textual. A value which itself contains a
// bracketed name is replaced again if that name sorts later.
func replace(text string, b Bindings) string {
	for _, name := range b.names() {
		text = strings.ReplaceAll(text, "["+name+"]", b[name])
	}
	text = trueword.ReplaceAllLiteralString(text, b["true"])
	text = falseword.ReplaceAllLiteralString(text, b["false"])
	return text
}
