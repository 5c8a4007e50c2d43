package formulas

import (
	"strconv"
	"strings"
)

// node is a node in the syntax tree of a formula.
type node struct {
	kind nodeKind

	// name is literal text, a function name, a comparison operator, or the
	// source of a nested formula, according to kind.
	name string
	fn   *builtin
	op   byte
	// col is the position of an exponent mark, for errors found during
	// evaluation.
	col int

	left  *node
	right *node
	args  []*node

	// err is a parse error contained by a nested formula or conditional.
	err error
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeFormula // args are nodeStep, folded in order into an accumulator starting at 0
	nodeStep    // fold left into the accumulator with op; nil left is an empty buffer
	nodeText    // name is literal buffer text
	nodeJoin    // args joined as text, then read as a number
	nodeSci     // left is the mantissa term, right is the exponent
	nodeNest    // left is the formula parsed from name; failures evaluate to 0
	nodeCall    // fn applied to args; nil fn evaluates to 0
	nodeCond    // compare left and right with name, then evaluate args[0] or args[1]
)

var kindnames = [...]string{
	nodeNone:    "None",
	nodeFormula: "Formula",
	nodeStep:    "Step",
	nodeText:    "Text",
	nodeJoin:    "Join",
	nodeSci:     "Sci",
	nodeNest:    "Nest",
	nodeCall:    "Call",
	nodeCond:    "Cond",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(kindnames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindnames[k]
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	if n == nil {
		b.WriteByte('_')
		return
	}
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$$")
	case nodeFormula:
		b.WriteByte(l)
		for i, s := range n.args {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteByte(s.op)
			} else if s.op != '+' {
				b.WriteByte(s.op)
			}
			s.fmt(b, square)
		}
		b.WriteByte(r)
	case nodeStep:
		n.left.fmt(b, !square)
	case nodeText:
		b.WriteString(strings.TrimSpace(n.name))
	case nodeJoin:
		for i, p := range n.args {
			if i > 0 {
				b.WriteByte('~')
			}
			p.fmt(b, square)
		}
	case nodeSci:
		n.left.fmt(b, square)
		b.WriteByte('e')
		n.right.fmt(b, square)
	case nodeNest:
		if n.err != nil {
			b.WriteByte('$')
			b.WriteString(n.name)
			b.WriteByte('$')
			return
		}
		n.left.fmt(b, square)
	case nodeCall:
		b.WriteString(n.name)
		b.WriteByte(l)
		for i, a := range n.args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.fmt(b, !square)
		}
		b.WriteByte(r)
	case nodeCond:
		b.WriteString("if")
		b.WriteByte(l)
		if n.err != nil {
			b.WriteByte('$')
			b.WriteString(n.name)
			b.WriteByte('$')
			b.WriteByte(r)
			return
		}
		n.left.fmt(b, !square)
		b.WriteString(" " + n.name + " ")
		n.right.fmt(b, !square)
		b.WriteString(" ? ")
		n.args[0].fmt(b, !square)
		b.WriteString(" : ")
		n.args[1].fmt(b, !square)
		b.WriteByte(r)
	default:
		panic("formulas: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}
