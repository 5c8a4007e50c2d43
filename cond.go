package formulas

import (
	"strings"
)

// comparisons are the operators of the conditional, longest first so that
// e.g. <= is never read as <. The string comparisons must be surrounded by
// spaces.
var comparisons = [...]string{"<=", ">=", "==", "!=", "<", ">", " sneq ", " seq "}

// isStringCmp reports whether a comparison compares operand text rather than
// values.
func isStringCmp(cmp string) bool {
	return cmp == "seq" || cmp == "sneq"
}

// cond parses the body of a conditional, the text between the parentheses of
// if(...). A malformed body gives a node that evaluates to zero.
func (p *parsectx) cond(body string, col, depth int) (*node, error) {
	n := &node{kind: nodeCond, name: body}
	q := strings.IndexByte(body, '?')
	if q < 0 {
		n.err = &ConditionError{Col: col, Body: body, Reason: "no ?"}
		return n, nil
	}
	lhs, cmp, rhs, k := splitcond(body[:q])
	switch {
	case k == 0:
		n.err = &ConditionError{Col: col, Body: body, Reason: "no comparison"}
		return n, nil
	case k > 1:
		n.err = &ConditionError{Col: col, Body: body, Reason: "more than one comparison"}
		return n, nil
	}
	c := colon(body, q+1)
	if c < 0 {
		n.err = &ConditionError{Col: col + q, Body: body, Reason: "no : after ?"}
		return n, nil
	}
	if isStringCmp(cmp) {
		n.left = &node{kind: nodeText, name: strings.TrimSpace(lhs)}
		n.right = &node{kind: nodeText, name: strings.TrimSpace(rhs)}
	} else {
		var err error
		if n.left, err = p.nested(lhs, col, depth); err != nil {
			return nil, err
		}
		if n.right, err = p.nested(rhs, col+q-len(rhs), depth); err != nil {
			return nil, err
		}
	}
	then, err := p.nested(body[q+1:c], col+q+1, depth)
	if err != nil {
		return nil, err
	}
	otherwise, err := p.nested(body[c+1:], col+c+1, depth)
	if err != nil {
		return nil, err
	}
	n.name = cmp
	n.args = []*node{then, otherwise}
	return n, nil
}

// splitcond finds the comparisons in the condition clause of a conditional.
// lhs, cmp, and rhs describe the first comparison found; k is the number of
// comparisons.
func splitcond(clause string) (lhs, cmp, rhs string, k int) {
	last := 0
	for i := 0; i < len(clause); {
		m := ""
		for _, c := range comparisons {
			if strings.HasPrefix(clause[i:], c) {
				m = c
				break
			}
		}
		if m == "" {
			i++
			continue
		}
		k++
		switch k {
		case 1:
			lhs = clause[:i]
			cmp = strings.TrimSpace(m)
		case 2:
			rhs = clause[last:i]
		}
		i += len(m)
		last = i
	}
	if k == 1 {
		rhs = clause[last:]
	}
	return lhs, cmp, rhs, k
}

// holds decides the condition of a conditional.
func (n *node) holds(ctx *Context) bool {
	if isStringCmp(n.name) {
		eq := n.left.name == n.right.name
		if n.name == "seq" {
			return eq
		}
		return !eq
	}
	// Operands are nested formulas, which contain their own errors.
	a, _ := n.left.eval(ctx)
	b, _ := n.right.eval(ctx)
	switch n.name {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "==":
		return a == b
	case "!=":
		return a != b
	default:
		panic("formulas: unknown comparison " + n.name)
	}
}
