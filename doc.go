// Package formulas implements a small formula language for driving numeric
// behavior from editable text.
//
// A formula is arithmetic read strictly left to right: "2+3*4" is 20, because
// there is no operator precedence. Parentheses group, so "2+(3*4)" is 14.
// A value written against other text joins it and is read again with it:
// "(2)(3)" is 23, and "2(0-3)" reads as "2-3", which is -1.
// Variables are written [name] and replaced textually before parsing, along
// with the words true and false, which are 1 and 0 unless bound otherwise.
//
// The functions are min(a,b), max(a,b), ln(x) or l(x), log(x) or L(x) for the
// base-10 logarithm, abs(x), sign(x), which is 1 for zero, and the
// conditional if(a < b ? then : else). Conditionals compare with < > <= >=
// == != on values, or with seq and sneq on operand text:
// if([mode] seq fast ? 2 : 1).
//
// Formulas are forgiving. An operand which is not a number is skipped, a
// malformed parenthesized part evaluates to zero, and Engine.Evaluate turns
// any remaining failure into a logged zero.
package formulas
