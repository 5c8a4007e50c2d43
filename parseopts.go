package formulas

// DefaultMaxDepth is the default limit on the nesting of formulas within
// parentheses, function arguments, exponents, and conditionals.
const DefaultMaxDepth = 256

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

// parsectx holds general data for parsing.
type parsectx struct {
	// maxdepth is the deepest nesting allowed.
	maxdepth int
}

type depthopt int

// MaxDepth sets the deepest nesting of formulas the parser accepts. Deeper
// formulas fail to parse with a DepthError. Values below 1 are treated as 1.
func MaxDepth(n int) ParseOption {
	return depthopt(n)
}

func (o depthopt) parseOption(p parsectx) parsectx {
	p.maxdepth = int(o)
	if p.maxdepth < 1 {
		p.maxdepth = 1
	}
	return p
}
