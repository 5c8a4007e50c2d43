package formulas

import (
	"math"
	"math/big"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// builtin is a function callable from formulas. Each argument is a nested
// formula, evaluated before the call.
type builtin struct {
	arity int
	call  func(ctx *Context, args []float64) float64
}

var builtins = map[string]*builtin{
	"min": {2, func(_ *Context, a []float64) float64 { return math.Min(a[0], a[1]) }},
	"max": {2, func(_ *Context, a []float64) float64 { return math.Max(a[0], a[1]) }},
	"l":   {1, ln},
	"ln":  {1, ln},
	"L":   {1, log10},
	"log": {1, log10},
	"abs": {1, func(_ *Context, a []float64) float64 { return math.Abs(a[0]) }},
	"sign": {1, func(_ *Context, a []float64) float64 {
		// Zero is positive.
		if a[0] >= 0 {
			return 1
		}
		return -1
	}},
}

// funcstarts is the set of bytes which begin a function call. Any occurrence
// of one of them outside a literal number is read as a call, so e.g. "sqrt(4)"
// is a call of an unknown function.
var funcstarts = func() string {
	var b strings.Builder
	add := func(c byte) {
		if !strings.Contains(b.String(), string(c)) {
			b.WriteByte(c)
		}
	}
	add('i') // if
	for name := range builtins {
		add(name[0])
	}
	return b.String()
}()

// logdomain handles the arguments for which bigfloat cannot compute a
// logarithm. ok is false if x is an ordinary positive number.
func logdomain(x float64) (r float64, ok bool) {
	switch {
	case math.IsNaN(x), x < 0:
		return math.NaN(), true
	case x == 0:
		return math.Inf(-1), true
	case math.IsInf(x, 1):
		return x, true
	}
	return 0, false
}

func ln(ctx *Context, a []float64) float64 {
	if r, ok := logdomain(a[0]); ok {
		return r
	}
	in := new(big.Float).SetPrec(ctx.Prec()).SetFloat64(a[0])
	out := new(big.Float).SetPrec(ctx.Prec())
	bigfloat.Log(out, in)
	r, _ := out.Float64()
	return r
}

func log10(ctx *Context, a []float64) float64 {
	if r, ok := logdomain(a[0]); ok {
		return r
	}
	in := new(big.Float).SetPrec(ctx.Prec()).SetFloat64(a[0])
	out := new(big.Float).SetPrec(ctx.Prec())
	bigfloat.Log(out, in)
	in.SetFloat64(10)
	bigfloat.Log(in, in)
	out.Quo(out, in)
	r, _ := out.Float64()
	return r
}
