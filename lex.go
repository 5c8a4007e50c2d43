package formulas

import "strings"

// Operators contains the bytes which fold the literal buffer into the
// accumulator. There is no precedence among them.
const Operators = "+-*/%^"

// ExponentMarks start scientific notation, e.g. "2e3".
const ExponentMarks = "eE"

// exponentStops contains the bytes which end the exponent text of
// scientific notation.
const exponentStops = Operators + "(" + ExponentMarks

// lexer classifies the bytes of one formula level. All of the syntax is
// ASCII, so bytes of multi-byte runes always fall through to the literal
// buffer.
type lexer struct {
	src string
	// starts is the set of bytes which begin a function call.
	starts string
}

func lex(src string) *lexer {
	return &lexer{src: src, starts: funcstarts}
}

func isOperator(c byte) bool {
	return strings.IndexByte(Operators, c) >= 0
}

func isExponent(c byte) bool {
	return c == 'e' || c == 'E'
}

func (l *lexer) isFuncStart(c byte) bool {
	return strings.IndexByte(l.starts, c) >= 0
}

// closing finds the parenthesis which closes the one at open. comma is the
// position of the last comma at depth zero between them, or -1 if there is
// none. ok is false if the parenthesis is never closed.
func (l *lexer) closing(open int) (end, comma int, ok bool) {
	return closing(l.src, open)
}

func closing(s string, open int) (end, comma int, ok bool) {
	depth := 0
	comma = -1
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return j, comma, true
			}
		case ',':
			if depth == 0 {
				comma = j
			}
		}
	}
	return len(s), comma, false
}

// exponentEnd finds the end of the exponent text following the exponent mark
// at i. The search starts two bytes after the mark so that the exponent may
// carry a sign. ok is false if the mark is the last byte of the input.
func (l *lexer) exponentEnd(i int) (end int, ok bool) {
	if i+1 >= len(l.src) {
		return 0, false
	}
	end = i + 2
	for end < len(l.src) && strings.IndexByte(exponentStops, l.src[end]) < 0 {
		end++
	}
	return end, true
}

// callOpen finds the parenthesis which opens the argument list of a function
// call starting at i, or -1 if there is none.
func (l *lexer) callOpen(i int) int {
	k := strings.IndexByte(l.src[i:], '(')
	if k < 0 {
		return -1
	}
	return i + k
}

// colon finds the first colon at depth zero at or after start, stopping at an
// unbalanced close parenthesis. The result is -1 if there is none.
func colon(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return -1
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// literal is the literal buffer of the scanner. It accumulates raw text and
// the values of nested terms, which join the buffer as decimal text.
type literal struct {
	parts []*node
	text  strings.Builder
}

// blank reports whether the buffer holds nothing but whitespace, in which case
// a minus sign is a sign prefix rather than an operator.
func (b *literal) blank() bool {
	return len(b.parts) == 0 && strings.TrimSpace(b.text.String()) == ""
}

func (b *literal) writeByte(c byte) {
	b.text.WriteByte(c)
}

func (b *literal) writeString(s string) {
	b.text.WriteString(s)
}

func (b *literal) add(n *node) {
	b.flush()
	b.parts = append(b.parts, n)
}

func (b *literal) flush() {
	if b.text.Len() == 0 {
		return
	}
	b.parts = append(b.parts, &node{kind: nodeText, name: b.text.String()})
	b.text.Reset()
}

// String returns the text of the buffer as written so far, with nested terms
// shown as their parsed form.
func (b *literal) String() string {
	var s strings.Builder
	for _, p := range b.parts {
		if p.kind == nodeText {
			s.WriteString(p.name)
			continue
		}
		s.WriteString(p.String())
	}
	s.WriteString(b.text.String())
	return s.String()
}

// node returns the term the buffer describes and resets the buffer. An empty
// buffer gives nil.
func (b *literal) node() *node {
	b.flush()
	parts := b.parts
	b.parts = nil
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return &node{kind: nodeJoin, args: parts}
	}
}
