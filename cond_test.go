package formulas

import "testing"

func TestSplitcond(t *testing.T) {
	cases := []struct {
		clause        string
		lhs, cmp, rhs string
		k             int
	}{
		{"1<2", "1", "<", "2", 1},
		{"1<=2", "1", "<=", "2", 1},
		{"1>=2", "1", ">=", "2", 1},
		{"1==2", "1", "==", "2", 1},
		{"1!=2", "1", "!=", "2", 1},
		{"1>2", "1", ">", "2", 1},
		{"a seq b", "a", "seq", "b", 1},
		{"a sneq b", "a", "sneq", "b", 1},
		{" x  seq  y ", " x", "seq", " y ", 1},
		{"aseqb", "", "", "", 0},
		{"1", "", "", "", 0},
		{"", "", "", "", 0},
		{"1<2<3", "1", "<", "2", 2},
		{"1<2 seq 3", "1", "<", "2", 2},
		{"1=2", "", "", "", 0},
		{"1!2", "", "", "", 0},
	}
	for _, c := range cases {
		lhs, cmp, rhs, k := splitcond(c.clause)
		if lhs != c.lhs || cmp != c.cmp || rhs != c.rhs || k != c.k {
			t.Errorf("splitcond(%q): want (%q, %q, %q, %d), got (%q, %q, %q, %d)", c.clause, c.lhs, c.cmp, c.rhs, c.k, lhs, cmp, rhs, k)
		}
	}
}

func TestCondErrors(t *testing.T) {
	cases := []struct {
		body   string
		reason string
	}{
		{"1<2", "no ?"},
		{"1?2:3", "no comparison"},
		{"1<2<3?1:2", "more than one comparison"},
		{"1<2?3", "no : after ?"},
		{"1<2?(3:4)", "no : after ?"},
	}
	p := parsectx{maxdepth: DefaultMaxDepth}
	for _, c := range cases {
		n, err := p.cond(c.body, 4, 0)
		if err != nil {
			t.Errorf("%q: error not contained: %v", c.body, err)
			continue
		}
		ce, ok := n.err.(*ConditionError)
		if !ok {
			t.Errorf("%q: want ConditionError, got %v", c.body, n.err)
			continue
		}
		if ce.Reason != c.reason {
			t.Errorf("%q: want reason %q, got %q", c.body, c.reason, ce.Reason)
		}
	}
}
