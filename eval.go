package formulas

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Context is a context for evaluating formulas. A Context is not modified by
// evaluation, so it is safe to use concurrently.
type Context struct {
	log  *slog.Logger
	prec uint
	id   string
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	precopt   uint
	loggeropt struct{ l *slog.Logger }
	identopt  string
)

func (precopt) ctxOption()   {}
func (loggeropt) ctxOption() {}
func (identopt) ctxOption()  {}

// Prec sets the precision in bits of the logarithm functions, which are
// computed with arbitrary precision before rounding to float64.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// Logger sets the logger which receives warnings about non-numeric operands
// and failures contained in nested formulas.
func Logger(l *slog.Logger) ContextOption {
	return loggeropt{l}
}

// Identifier sets the identifier attached to log records, naming the formula
// being evaluated for the host application.
func Identifier(id string) ContextOption {
	return identopt(id)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is 64. If no logger is given, the default is slog.Default().
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{prec: 64}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case precopt:
			ctx.prec = uint(opt)
		case loggeropt:
			ctx.log = opt.l
		case identopt:
			ctx.id = string(opt)
		default:
			panic("formulas: unknown option type")
		}
	}
	if ctx.log == nil {
		ctx.log = slog.Default()
	}
	return &ctx
}

// Prec returns the precision to which logarithms are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Eval evaluates a parsed formula. Failures in nested formulas are logged and
// evaluate to zero; the result is an error only if the outermost level fails,
// which happens when a mantissa of scientific notation is not a number.
func (e *Expr) Eval(ctx *Context) (float64, error) {
	return e.n.eval(ctx)
}

// eval computes the value of a node.
func (n *node) eval(ctx *Context) (float64, error) {
	switch n.kind {
	case nodeFormula:
		acc := 0.0
		for _, s := range n.args {
			v, err := s.left.foldInto(ctx, acc, s.op)
			if err != nil {
				return 0, &FoldError{Acc: acc, Buffer: s.left.String(), Err: err}
			}
			acc = v
		}
		return acc, nil
	case nodeText, nodeJoin, nodeSci:
		return n.foldInto(ctx, 0, '+')
	case nodeNest:
		if n.err != nil {
			ctx.contain(n.name, n.err)
			return 0, nil
		}
		v, err := n.left.eval(ctx)
		if err != nil {
			ctx.contain(n.name, err)
			return 0, nil
		}
		return v, nil
	case nodeCall:
		if n.fn == nil {
			ctx.log.Warn("unknown function", "identifier", ctx.id, "function", n.name)
			return 0, nil
		}
		args := make([]float64, len(n.args))
		for i, a := range n.args {
			v, err := a.eval(ctx)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return n.fn.call(ctx, args), nil
	case nodeCond:
		if n.err != nil {
			ctx.contain(n.name, n.err)
			return 0, nil
		}
		if n.holds(ctx) {
			return n.args[0].eval(ctx)
		}
		return n.args[1].eval(ctx)
	default:
		panic("formulas: invalid AST node " + n.kind.String())
	}
}

// foldInto folds a term into the accumulator with op. The text of a term is
// read again the way the scanner reads a formula, so a sign or exponent in a
// nested value joined to the term acts as it would if written in its place:
// -(0-2) reads as --2, which is -2.
func (n *node) foldInto(ctx *Context, acc float64, op byte) (float64, error) {
	if n == nil {
		return acc, nil
	}
	switch n.kind {
	case nodeText, nodeJoin:
		s, err := n.text(ctx)
		if err != nil {
			return acc, err
		}
		return ctx.rescan(acc, op, s)
	case nodeSci:
		var s string
		if n.left != nil {
			t, err := n.left.text(ctx)
			if err != nil {
				return acc, err
			}
			s = t
		}
		var rest string
		var err error
		acc, op, rest, err = ctx.scan(acc, op, s)
		if err != nil {
			return acc, err
		}
		rest = strings.TrimSpace(rest)
		m, ok := number(rest)
		if !ok {
			return acc, &ExponentError{Col: n.col, Mantissa: rest}
		}
		x, err := n.right.eval(ctx)
		if err != nil {
			return acc, err
		}
		return fold(acc, op, m*math.Pow(10, x)), nil
	default:
		v, err := n.eval(ctx)
		if err != nil {
			return acc, err
		}
		return fold(acc, op, v), nil
	}
}

// scan reads the text of a term as the scanner reads a formula, folding each
// complete operand into acc. It returns the pending operator and what remains
// in the literal buffer. The text holds no parentheses or calls; those were
// evaluated and joined as numbers.
func (ctx *Context) scan(acc float64, op byte, text string) (float64, byte, string, error) {
	l := lex(text)
	var buf strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '-' && strings.TrimSpace(buf.String()) == "":
			buf.WriteByte(c)
		case isOperator(c):
			acc = ctx.foldtext(acc, op, buf.String())
			op = c
			buf.Reset()
		case isExponent(c):
			m := strings.TrimSpace(buf.String())
			end, ok := l.exponentEnd(i)
			if !ok {
				return acc, op, "", &ExponentError{Mantissa: m, Missing: true}
			}
			x, err := ctx.rescan(0, '+', text[i+1:end])
			if err != nil {
				return acc, op, "", err
			}
			v, ok := number(m)
			if !ok {
				return acc, op, "", &ExponentError{Mantissa: m}
			}
			acc = fold(acc, op, v*math.Pow(10, x))
			buf.Reset()
			buf.WriteByte('0')
			op = '+'
			i = end - 1
		default:
			buf.WriteByte(c)
		}
	}
	return acc, op, buf.String(), nil
}

// rescan folds the whole text of a term into acc.
func (ctx *Context) rescan(acc float64, op byte, text string) (float64, error) {
	acc, op, buf, err := ctx.scan(acc, op, text)
	if err != nil {
		return acc, err
	}
	return ctx.foldtext(acc, op, buf), nil
}

// foldtext folds literal text into acc. Blank text and text which is not a
// number leave acc unchanged. A bare sign, left when a negative value follows
// a sign, does so quietly.
func (ctx *Context) foldtext(acc float64, op byte, s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return acc
	}
	v, ok := number(s)
	if !ok {
		ctx.log.Warn("non-numeric operand", "identifier", ctx.id, "operand", s)
		return acc
	}
	return fold(acc, op, v)
}

// text gets the text of a term. Nested values are written with FormatNumber.
func (n *node) text(ctx *Context) (string, error) {
	switch n.kind {
	case nodeText:
		return n.name, nil
	case nodeJoin:
		var b strings.Builder
		for _, p := range n.args {
			s, err := p.text(ctx)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	default:
		v, err := n.eval(ctx)
		if err != nil {
			return "", err
		}
		return FormatNumber(v), nil
	}
}

// FormatNumber writes a value in the decimal form in which nested values join
// the text of a term. Values of ordinary magnitude are written without an
// exponent. Infinities are Inf and -Inf, which read back as numbers.
func FormatNumber(v float64) string {
	if math.IsInf(v, 1) {
		return "Inf"
	}
	if a := math.Abs(v); a == 0 || (a >= 1e-5 && a < 1e15) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// fold applies an operator to the accumulator.
func fold(acc float64, op byte, v float64) float64 {
	switch op {
	case '+':
		return acc + v
	case '-':
		return acc - v
	case '*':
		return acc * v
	case '/':
		return acc / v
	case '%':
		// The divisor is truncated to an integer; the accumulator is not.
		return math.Mod(acc, math.Trunc(v))
	case '^':
		return math.Pow(acc, v)
	default:
		panic("formulas: invalid operator " + strconv.QuoteRune(rune(op)))
	}
}

// number reads a literal number. Only decimal notation and the forms
// FormatNumber writes for infinities and NaN are accepted; a value too large
// for float64 is infinite.
func number(s string) (float64, bool) {
	switch s {
	case "":
		return 0, false
	case "Inf", "+Inf":
		return math.Inf(1), true
	case "-Inf":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("0123456789+-.eE", rune(s[i])) {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// contain logs a failure in a nested formula, which then evaluates to zero.
func (ctx *Context) contain(src string, err error) {
	ctx.log.Warn("nested formula failed", "identifier", ctx.id, "formula", src, "error", err)
}
