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

package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTrue
	tokFalse
	tokIf
	tokThen
	tokElse
	tokPlus
	tokMinus
	tokTimes
	tokDiv
	tokMod
	tokEquals
	tokNotEquals
	tokAnd
	tokOr
	tokGT
	tokLT
	tokGE
	tokLE
	tokElvis
	tokRegexMatch
	tokNot
	tokQuestion
	tokColon
	tokComma
	tokDot
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokLBrace
	tokRBrace
)

var tokenNames = map[tokenKind]string{
	tokEOF:        "end of input",
	tokIdent:      "identifier",
	tokNumber:     "number",
	tokString:     "string",
	tokTrue:       "`true`",
	tokFalse:      "`false`",
	tokIf:         "`if`",
	tokThen:       "`then`",
	tokElse:       "`else`",
	tokPlus:       "`+`",
	tokMinus:      "`-`",
	tokTimes:      "`*`",
	tokDiv:        "`/`",
	tokMod:        "`%`",
	tokEquals:     "`==`",
	tokNotEquals:  "`!=`",
	tokAnd:        "`&&`",
	tokOr:         "`||`",
	tokGT:         "`>`",
	tokLT:         "`<`",
	tokGE:         "`>=`",
	tokLE:         "`<=`",
	tokElvis:      "`?:`",
	tokRegexMatch: "`=~`",
	tokNot:        "`!`",
	tokQuestion:   "`?`",
	tokColon:      "`:`",
	tokComma:      "`,`",
	tokDot:        "`.`",
	tokLParen:     "`(`",
	tokRParen:     "`)`",
	tokLBrack:     "`[`",
	tokRBrack:     "`]`",
	tokLBrace:     "`{`",
	tokRBrace:     "`}`",
}

func (obj tokenKind) String() string { return tokenNames[obj] }

// symbols are matched longest first.
var symbols = []struct {
	text string
	kind tokenKind
}{
	{"==", tokEquals},
	{"!=", tokNotEquals},
	{"&&", tokAnd},
	{"||", tokOr},
	{">=", tokGE},
	{"<=", tokLE},
	{"?:", tokElvis},
	{"=~", tokRegexMatch},
	{"+", tokPlus},
	{"-", tokMinus},
	{"*", tokTimes},
	{"/", tokDiv},
	{"%", tokMod},
	{">", tokGT},
	{"<", tokLT},
	{"!", tokNot},
	{"?", tokQuestion},
	{":", tokColon},
	{",", tokComma},
	{".", tokDot},
	{"(", tokLParen},
	{")", tokRParen},
	{"[", tokLBrack},
	{"]", tokRBrack},
	{"{", tokLBrace},
	{"}", tokRBrace},
}

var keywords = map[string]tokenKind{
	"true":  tokTrue,
	"false": tokFalse,
	"if":    tokIf,
	"then":  tokThen,
	"else":  tokElse,
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'`':  '`',
	'$':  '$',
	'{':  '{',
	'}':  '}',
}

// segment is one piece of a string literal. It's either literal text, or the
// tokens of an interpolated expression.
type segment struct {
	literal string
	tokens  []token // set for interpolations, ends with a tokEOF
	span    interfaces.Span
	interp  bool
}

type token struct {
	kind     tokenKind
	text     string // identifiers and numbers
	span     interfaces.Span
	segments []segment // strings
}

// lexer turns the source text into tokens. Positions are byte offsets into
// src, and every span it produces is shifted by base.
type lexer struct {
	src  string
	base int
	pos  int
}

func (obj *lexer) span(start, end int) interfaces.Span {
	return interfaces.Span{Start: obj.base + start, End: obj.base + end}
}

func (obj *lexer) errorf(kind util.Error, start, end int, format string, v ...interface{}) error {
	return &LexParseErr{
		Err:   kind,
		Str:   fmt.Sprintf(format, v...),
		Where: obj.span(start, end),
	}
}

// run lexes the whole input.
func (obj *lexer) run() ([]token, error) {
	return obj.lexTokens(false)
}

// lexTokens lexes until the end of input, or until the closing brace of an
// interpolation if inInterp is set. The closing brace is consumed but not
// returned. The result always ends with a tokEOF.
func (obj *lexer) lexTokens(inInterp bool) ([]token, error) {
	tokens := []token{}
	depth := 0
	for {
		obj.skipSpace()
		start := obj.pos
		if obj.pos >= len(obj.src) {
			if inInterp {
				return nil, obj.errorf(ErrLexerUnterminatedInterpolation, start, start, "missing `}`")
			}
			tokens = append(tokens, token{kind: tokEOF, span: obj.span(start, start)})
			return tokens, nil
		}
		c := obj.src[obj.pos]

		switch {
		case c == '}' && inInterp && depth == 0:
			obj.pos++
			tokens = append(tokens, token{kind: tokEOF, span: obj.span(start, start)})
			return tokens, nil

		case c == '"' || c == '\'' || c == '`':
			tok, err := obj.lexString(c)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			continue

		case isDigit(c):
			tokens = append(tokens, obj.lexNumber())
			continue

		case isIdentStart(c):
			tokens = append(tokens, obj.lexIdent())
			continue
		}

		matched := false
		for _, sym := range symbols {
			if !strings.HasPrefix(obj.src[obj.pos:], sym.text) {
				continue
			}
			obj.pos += len(sym.text)
			switch sym.kind {
			case tokLBrace:
				depth++
			case tokRBrace:
				depth--
			}
			tokens = append(tokens, token{kind: sym.kind, span: obj.span(start, obj.pos)})
			matched = true
			break
		}
		if !matched {
			r, size := utf8.DecodeRuneInString(obj.src[obj.pos:])
			return nil, obj.errorf(ErrLexerUnrecognized, start, start+size, "`%c`", r)
		}
	}
}

func (obj *lexer) skipSpace() {
	for obj.pos < len(obj.src) {
		switch obj.src[obj.pos] {
		case ' ', '\t', '\n', '\r':
			obj.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (obj *lexer) lexNumber() token {
	start := obj.pos
	for obj.pos < len(obj.src) && isDigit(obj.src[obj.pos]) {
		obj.pos++
	}
	if obj.pos+1 < len(obj.src) && obj.src[obj.pos] == '.' && isDigit(obj.src[obj.pos+1]) {
		obj.pos++
		for obj.pos < len(obj.src) && isDigit(obj.src[obj.pos]) {
			obj.pos++
		}
	}
	return token{kind: tokNumber, text: obj.src[start:obj.pos], span: obj.span(start, obj.pos)}
}

// lexIdent reads an identifier. A dash is part of it only when it is followed
// by a letter or an underscore, so `my-var` is one name but `x-1` is not.
func (obj *lexer) lexIdent() token {
	start := obj.pos
	for obj.pos < len(obj.src) {
		c := obj.src[obj.pos]
		if isIdentChar(c) {
			obj.pos++
			continue
		}
		if c == '-' && obj.pos+1 < len(obj.src) && isIdentStart(obj.src[obj.pos+1]) {
			obj.pos++
			continue
		}
		break
	}
	text := obj.src[start:obj.pos]
	kind := tokIdent
	if k, exists := keywords[text]; exists {
		kind = k
	}
	return token{kind: kind, text: text, span: obj.span(start, obj.pos)}
}

// lexString reads a quoted string, including any interpolations inside of it.
func (obj *lexer) lexString(quote byte) (token, error) {
	start := obj.pos
	obj.pos++ // opening quote
	segments, err := obj.lexSegments(func(c byte) bool { return c == quote }, true)
	if err != nil {
		return token{}, err
	}
	if obj.pos >= len(obj.src) {
		return token{}, obj.errorf(ErrLexerUnterminatedString, start, obj.pos, "missing closing %c", quote)
	}
	obj.pos++ // closing quote
	return token{kind: tokString, span: obj.span(start, obj.pos), segments: segments}, nil
}

// lexTemplate reads the whole input as the contents of a string, without any
// quotes or escapes. Only interpolations are special.
func (obj *lexer) lexTemplate() (token, error) {
	segments, err := obj.lexSegments(func(byte) bool { return false }, false)
	if err != nil {
		return token{}, err
	}
	return token{kind: tokString, span: obj.span(0, len(obj.src)), segments: segments}, nil
}

// lexSegments reads string contents until the end of input or until stop
// returns true for the current character, which is not consumed.
func (obj *lexer) lexSegments(stop func(byte) bool, withEscapes bool) ([]segment, error) {
	segments := []segment{}
	var lit strings.Builder
	litStart := obj.pos

	flush := func() {
		if lit.Len() == 0 {
			return
		}
		segments = append(segments, segment{
			literal: lit.String(),
			span:    obj.span(litStart, obj.pos),
		})
		lit.Reset()
	}

	for obj.pos < len(obj.src) {
		c := obj.src[obj.pos]
		if stop(c) {
			break
		}

		if withEscapes && c == '\\' {
			if obj.pos+1 >= len(obj.src) {
				return nil, obj.errorf(ErrLexerUnterminatedString, obj.pos, obj.pos+1, "dangling escape")
			}
			e, exists := escapes[obj.src[obj.pos+1]]
			if !exists {
				r, size := utf8.DecodeRuneInString(obj.src[obj.pos+1:])
				return nil, obj.errorf(ErrLexerStringBadEscaping, obj.pos, obj.pos+1+size, "`\\%c`", r)
			}
			lit.WriteByte(e)
			obj.pos += 2
			continue
		}

		if c == '$' && obj.pos+1 < len(obj.src) && obj.src[obj.pos+1] == '{' {
			flush()
			start := obj.pos
			obj.pos += 2
			tokens, err := obj.lexTokens(true)
			if err != nil {
				return nil, err
			}
			segments = append(segments, segment{
				tokens: tokens,
				span:   obj.span(start, obj.pos),
				interp: true,
			})
			litStart = obj.pos
			continue
		}

		lit.WriteByte(c)
		obj.pos++
	}
	flush()
	return segments, nil
}
