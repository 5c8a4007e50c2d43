package formulas

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Engine evaluates formulas for a host application: it substitutes variables,
// consults its cache, and evaluates what it must. An Engine is safe for
// concurrent use.
type Engine struct {
	cache    Cache
	listener Listener
	log      *slog.Logger
	parse    []ParseOption
	prec     uint

	// flight collapses concurrent evaluations of the same substituted text.
	flight singleflight.Group

	// calls remembers the substituted text of earlier calls. It is bounded
	// when the cache is.
	calls memo
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the cache of results. The default is a new MapCache.
func WithCache(c Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithListener sets the listener notified before variables are substituted.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithLogger sets the logger for failures. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaxDepth limits the nesting of formulas. See MaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.parse = append(e.parse, MaxDepth(n))
	}
}

// WithPrec sets the precision in bits of logarithms. The default is 64.
func WithPrec(prec uint) Option {
	return func(e *Engine) {
		e.prec = prec
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:  slog.Default(),
		prec: 64,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewMapCache()
	}
	e.calls = newMemo(e.cache)
	return e
}

// Close releases the memory of earlier calls. It does not close the cache.
// An Engine must not be used after Close.
func (e *Engine) Close() {
	e.calls.close()
}

// Evaluate substitutes bindings into a formula and evaluates it. The result
// is always a number: a formula which cannot be evaluated is logged with its
// identifier and yields zero.
//
// Results are cached by the substituted text. Repeating a call with the same
// identifier, text, and bindings is answered from the cache without notifying
// the listener. If the cache implements Bounded, the Engine remembers at most
// that many calls; a forgotten call is substituted again.
func (e *Engine) Evaluate(identifier, text string, b Bindings) float64 {
	ck := callkey(identifier, text, b)
	if key, ok := e.calls.recall(ck); ok {
		if v, ok := e.cache.Lookup(key); ok {
			return v
		}
	}
	key := e.Substitute(identifier, text, b)
	r, _, _ := e.flight.Do(key, func() (any, error) {
		if v, ok := e.cache.Lookup(key); ok {
			return v, nil
		}
		v, err := e.Compute(identifier, key)
		if err != nil {
			e.log.Error("formula failed", e.failattrs(identifier, key, err)...)
			return 0.0, nil
		}
		e.cache.Store(key, v)
		return v, nil
	})
	e.calls.remember(ck, key)
	return r.(float64)
}

// Format evaluates a formula like Evaluate and formats the result with
// FormatNumber. It is the entry point for template walkers which rewrite text
// values in place.
func (e *Engine) Format(identifier, text string, b Bindings) string {
	return FormatNumber(e.Evaluate(identifier, text, b))
}

// Substitute replaces the variables in a formula with their bindings. The
// bindings are copied, and true and false are bound to 1 and 0 unless they
// are already bound. The listener is notified with the copy before the
// replacement and may change it.
func (e *Engine) Substitute(identifier, text string, b Bindings) string {
	b = b.Clone()
	if _, ok := b["true"]; !ok {
		b["true"] = "1"
	}
	if _, ok := b["false"]; !ok {
		b["false"] = "0"
	}
	if e.listener != nil {
		if err := notify(e.listener, identifier, b); err != nil {
			e.log.Warn("binding listener failed", "identifier", identifier, "error", err)
		}
	}
	return replace(text, b)
}

// Compute parses and evaluates a formula whose variables are already
// substituted, bypassing the cache. Unlike Evaluate, it returns failures.
func (e *Engine) Compute(identifier, src string) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formulas: panic evaluating %q: %v", src, r)
		}
	}()
	x, err := Parse(src, e.parse...)
	if err != nil {
		return 0, err
	}
	return x.Eval(NewContext(Prec(e.prec), Logger(e.log), Identifier(identifier)))
}

// callkey identifies the arguments of a call to Evaluate. Each part is
// prefixed with its length so that no two calls share a key.
func callkey(identifier, text string, b Bindings) string {
	var s strings.Builder
	part := func(p string) {
		s.WriteString(strconv.Itoa(len(p)))
		s.WriteByte(':')
		s.WriteString(p)
	}
	part(identifier)
	part(text)
	for _, k := range slices.Sorted(maps.Keys(b)) {
		part(k)
		part(b[k])
	}
	return s.String()
}

// failattrs describes a failed formula for logging, including the state of
// the scanner where it is known.
func (e *Engine) failattrs(identifier, src string, err error) []any {
	attrs := []any{"identifier", identifier, "formula", src, "error", err}
	var fe *FoldError
	if errors.As(err, &fe) {
		attrs = append(attrs, "accumulator", fe.Acc, "buffer", fe.Buffer)
	}
	var pe foldedError
	if errors.As(err, &pe) {
		if acc, ok := e.accumulate(pe.folded()); ok {
			attrs = append(attrs, "accumulator", acc)
		}
	}
	var be *BracketError
	if errors.As(err, &be) {
		attrs = append(attrs, "buffer", be.Buffer)
	}
	var ce *CallError
	if errors.As(err, &ce) {
		attrs = append(attrs, "buffer", ce.Buffer)
	}
	return attrs
}

// accumulate evaluates the text folded before a parse failure, giving the
// accumulator at the point of failure. Warnings from it are discarded.
func (e *Engine) accumulate(folded string) (float64, bool) {
	x, err := Parse(folded, e.parse...)
	if err != nil {
		return 0, false
	}
	v, err := x.Eval(NewContext(Prec(e.prec), Logger(slog.New(slog.DiscardHandler))))
	if err != nil {
		return 0, false
	}
	return v, true
}

var defaultEngine = New()

// Evaluate evaluates a formula with a shared Engine, whose cache lives for the
// life of the process. See Engine.Evaluate.
func Evaluate(identifier, text string, b Bindings) float64 {
	return defaultEngine.Evaluate(identifier, text, b)
}
