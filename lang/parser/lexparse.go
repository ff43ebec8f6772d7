// Mgmt
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package parser contains the lexer and parser for the expression language.
//
// Operator precedence, from loosest to tightest binding:
//
//	if c then a else b        (prefix, extends as far right as possible)
//	c ? a : b                 (right associative)
//	?:                        (elvis, left associative)
//	||
//	&&
//	== != =~
//	< > <= >=
//	+ -
//	* / %
//	! -                       (prefix)
//	a[i] a.b f(x)             (postfix)
//
// All binary operators of the same level are left associative.
package parser

import (
	"fmt"
	"strings"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// These constants represent the different possible lexer/parser errors.
const (
	// ErrLexError matches every lexical error with errors.Is.
	ErrLexError = util.Error("lexer")

	// ErrParseError matches every syntactic error with errors.Is.
	ErrParseError = util.Error("parser")

	ErrLexerUnrecognized              = util.Error("unrecognized")
	ErrLexerStringBadEscaping         = util.Error("string: bad escaping")
	ErrLexerUnterminatedString        = util.Error("string: unterminated")
	ErrLexerUnterminatedInterpolation = util.Error("string: unterminated interpolation")
)

// LexParseErr is a permanent failure error to notify about borkage. Lexical
// and syntactic errors are distinguished by the Err kind; see IsLexical.
type LexParseErr struct {
	Err util.Error
	Str string

	// Where is the offending region of the input.
	Where interfaces.Span

	// Expected lists the tokens that would have been accepted instead. It's
	// only set for syntactic errors.
	Expected []string
}

// Error displays this error with all the relevant state information.
func (e *LexParseErr) Error() string {
	s := fmt.Sprintf("%s: %s %s", e.Err, e.Str, e.Where)
	if len(e.Expected) > 0 {
		s += fmt.Sprintf(", expected one of: %s", strings.Join(e.Expected, " "))
	}
	return s
}

// Span returns the offending region of the input.
func (e *LexParseErr) Span() interfaces.Span {
	return e.Where
}

// IsLexical returns true if this is a lexer error rather than a parser error.
func (e *LexParseErr) IsLexical() bool {
	return e.Err != ErrParseError
}

// Is lets errors.Is match both the specific kind and the broad category.
func (e *LexParseErr) Is(target error) bool {
	switch target {
	case e.Err:
		return true
	case ErrLexError:
		return e.IsLexical()
	case ErrParseError:
		return !e.IsLexical()
	}
	return false
}

// Parse runs the lexer/parser machinery on an expression and returns the AST.
func Parse(input string) (ast.Expr, error) {
	return ParseWithOffset(0, input)
}

// ParseWithOffset is like Parse, except that all the spans are shifted by the
// offset. Use this when the expression is a piece of a larger document.
func ParseWithOffset(offset int, input string) (ast.Expr, error) {
	lex := &lexer{src: input, base: offset}
	tokens, err := lex.run()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseAll()
}

// ParseInterpolated parses text that is a string template rather than an
// expression: everything is literal except for `${expr}` sections. The result
// is a literal if there is nothing to interpolate.
func ParseInterpolated(offset int, input string) (ast.Expr, error) {
	lex := &lexer{src: input, base: offset}
	tok, err := lex.lexTemplate()
	if err != nil {
		return nil, err
	}
	return buildString(tok)
}
