package formulas

import (
	"errors"
)

// Formula = Step { Step }
// Step    = [ op ] Term                         op is one of + - * / % ^
// Term    = { text | '(' Formula ')' | Call } [ Exp ]
// Exp     = ('e' | 'E') Formula                 up to the next op, ( or exponent mark
// Call    = fname '(' Formula [ ',' Formula ] ')' | 'if' '(' Cond ')'
// Cond    = Formula cmp Formula '?' Formula ':' Formula
//
// Steps fold into an accumulator starting at zero, strictly in order. A minus
// sign with nothing before it in the term is part of the term. The values of
// parenthesized formulas and calls join the term as decimal text.

// Expr is a parsed formula that can be evaluated with a context.
type Expr struct {
	// n is the root node of the formula.
	n *node
	// src is the text the formula was parsed from.
	src string
}

// Parse parses a formula so it can be evaluated with a context. The given
// options are applied in order. Variables must already be substituted.
//
// Malformed nested formulas, i.e. those inside parentheses, function
// arguments, exponents, or conditionals, do not cause Parse to fail. They
// evaluate to zero instead. The result is an error only if the outermost level
// of the formula is malformed or the formula is nested too deeply.
func Parse(src string, opts ...ParseOption) (*Expr, error) {
	p := parsectx{maxdepth: DefaultMaxDepth}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	n, err := p.formula(src, 0)
	if err != nil {
		return nil, err
	}
	return &Expr{n: n, src: src}, nil
}

// formula parses one level of a formula. Nested levels are parsed through
// nested, which contains their errors.
func (p *parsectx) formula(src string, depth int) (*node, error) {
	scan := lex(src)
	f := &node{kind: nodeFormula}
	op := byte('+')
	var buf literal
	// start is where the current term begins.
	start := 0
	fold := func(t *node) {
		f.args = append(f.args, &node{kind: nodeStep, op: op, left: t})
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '-' && buf.blank():
			// Sign prefix.
			buf.writeByte(c)
		case isOperator(c):
			fold(buf.node())
			op = c
			start = i + 1
		case isExponent(c):
			end, ok := scan.exponentEnd(i)
			if !ok {
				return nil, &ExponentError{Col: i + 1, Mantissa: buf.String(), Missing: true, Folded: src[:start]}
			}
			exp, err := p.nested(src[i+1:end], i+2, depth)
			if err != nil {
				return nil, err
			}
			fold(&node{kind: nodeSci, left: buf.node(), right: exp, col: i + 1})
			// The scientific term has been folded already, so the next fold
			// adds zero unless more text follows.
			buf.writeByte('0')
			op = '+'
			i = end - 1
			start = end
		case c == '(':
			end, _, ok := scan.closing(i)
			if !ok {
				return nil, &BracketError{Col: i + 1, Buffer: buf.String(), Folded: src[:start]}
			}
			n, err := p.nested(src[i+1:end], i+2, depth)
			if err != nil {
				return nil, err
			}
			buf.add(n)
			i = end
		case scan.isFuncStart(c):
			n, end, err := p.call(scan, i, depth, &buf)
			if err != nil {
				return nil, withFolded(err, src[:start])
			}
			buf.add(n)
			i = end
		default:
			buf.writeByte(c)
		}
	}
	fold(buf.node())
	return f, nil
}

// nested parses a nested formula. Errors in the nested formula are held in the
// returned node so that it evaluates to zero, except for DepthError, which is
// returned.
func (p *parsectx) nested(src string, col, depth int) (*node, error) {
	if depth >= p.maxdepth {
		return nil, &DepthError{Col: col, Max: p.maxdepth}
	}
	n := &node{kind: nodeNest, name: src}
	f, err := p.formula(src, depth+1)
	if err != nil {
		var de *DepthError
		if errors.As(err, &de) {
			return nil, err
		}
		n.err = err
		return n, nil
	}
	n.left = f
	return n, nil
}

// call parses a function call starting at i. The second result is the
// position of the parenthesis closing the call.
func (p *parsectx) call(scan *lexer, i, depth int, buf *literal) (*node, int, error) {
	src := scan.src
	open := scan.callOpen(i)
	if open < 0 {
		return nil, 0, &CallError{Col: i + 1, Func: src[i:], Buffer: buf.String()}
	}
	name := src[i:open]
	end, comma, ok := scan.closing(open)
	if !ok {
		return nil, 0, &BracketError{Col: open + 1, Buffer: buf.String()}
	}
	if name == "if" {
		n, err := p.cond(src[open+1:end], open+2, depth)
		return n, end, err
	}
	n := &node{kind: nodeCall, name: name, fn: builtins[name]}
	switch {
	case n.fn == nil:
		// Unknown functions evaluate to zero, so their arguments don't matter.
	case n.fn.arity == 2:
		if comma < 0 {
			return nil, 0, &CallError{Col: i + 1, Func: name, Buffer: buf.String()}
		}
		a, err := p.nested(src[open+1:comma], open+2, depth)
		if err != nil {
			return nil, 0, err
		}
		b, err := p.nested(src[comma+1:end], comma+2, depth)
		if err != nil {
			return nil, 0, err
		}
		n.args = []*node{a, b}
	default:
		a, err := p.nested(src[open+1:end], open+2, depth)
		if err != nil {
			return nil, 0, err
		}
		n.args = []*node{a}
	}
	return n, end, nil
}

// String creates a string representation of the parsed formula, with
// alternating round and square brackets grouping each level.
func (e *Expr) String() string {
	return e.n.String()
}

// Source returns the text the formula was parsed from.
func (e *Expr) Source() string {
	return e.src
}
