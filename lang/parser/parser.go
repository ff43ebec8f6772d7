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

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/interfaces"
)

// parser is a recursive descent parser over a token list that ends in tokEOF.
type parser struct {
	tokens []token
	pos    int
}

func (obj *parser) peek() token {
	return obj.tokens[obj.pos]
}

func (obj *parser) next() token {
	tok := obj.tokens[obj.pos]
	if tok.kind != tokEOF {
		obj.pos++
	}
	return tok
}

// accept consumes the next token if it is of one of the kinds.
func (obj *parser) accept(kinds ...tokenKind) (token, bool) {
	tok := obj.peek()
	for _, k := range kinds {
		if tok.kind == k {
			return obj.next(), true
		}
	}
	return tok, false
}

func (obj *parser) expect(kind tokenKind) (token, error) {
	if tok, ok := obj.accept(kind); ok {
		return tok, nil
	}
	return token{}, obj.unexpected(kind.String())
}

// unexpected builds a syntax error at the current token.
func (obj *parser) unexpected(expected ...string) error {
	tok := obj.peek()
	str := "unexpected end of input"
	if tok.kind != tokEOF {
		str = fmt.Sprintf("unexpected %s", describe(tok))
	}
	return &LexParseErr{
		Err:      ErrParseError,
		Str:      str,
		Where:    tok.span,
		Expected: expected,
	}
}

func describe(tok token) string {
	switch tok.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("`%s`", tok.text)
	}
	return tok.kind.String()
}

func (obj *parser) parseAll() (ast.Expr, error) {
	expr, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	if obj.peek().kind != tokEOF {
		return nil, obj.unexpected("operator", tokEOF.String())
	}
	return expr, nil
}

func (obj *parser) parseExpr() (ast.Expr, error) {
	if tok, ok := obj.accept(tokIf); ok {
		return obj.parseIfThenElse(tok)
	}
	return obj.parseTernary()
}

func (obj *parser) parseIfThenElse(start token) (ast.Expr, error) {
	cond, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := obj.expect(tokThen); err != nil {
		return nil, err
	}
	a, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := obj.expect(tokElse); err != nil {
		return nil, err
	}
	b, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	expr := &ast.ExprIf{Condition: cond, ThenBranch: a, ElseBranch: b}
	expr.Locate(start.span.To(b.Span()))
	return expr, nil
}

func (obj *parser) parseTernary() (ast.Expr, error) {
	cond, err := obj.parseElvis()
	if err != nil {
		return nil, err
	}
	if _, ok := obj.accept(tokQuestion); !ok {
		return cond, nil
	}
	a, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := obj.expect(tokColon); err != nil {
		return nil, err
	}
	b, err := obj.parseExpr()
	if err != nil {
		return nil, err
	}
	expr := &ast.ExprIf{Condition: cond, ThenBranch: a, ElseBranch: b}
	expr.Locate(cond.Span().To(b.Span()))
	return expr, nil
}

// binaryLevels lists the binary operators of each precedence level, loosest
// first. Each level is left associative.
var binaryLevels = []map[tokenKind]ast.BinOp{
	{tokElvis: ast.OpElvis},
	{tokOr: ast.OpOr},
	{tokAnd: ast.OpAnd},
	{tokEquals: ast.OpEquals, tokNotEquals: ast.OpNotEquals, tokRegexMatch: ast.OpRegexMatch},
	{tokLT: ast.OpLT, tokGT: ast.OpGT, tokLE: ast.OpLE, tokGE: ast.OpGE},
	{tokPlus: ast.OpPlus, tokMinus: ast.OpMinus},
	{tokTimes: ast.OpTimes, tokDiv: ast.OpDiv, tokMod: ast.OpMod},
}

func (obj *parser) parseElvis() (ast.Expr, error) {
	return obj.parseBinary(0)
}

func (obj *parser) parseBinary(level int) (ast.Expr, error) {
	if level >= len(binaryLevels) {
		return obj.parseUnary()
	}
	a, err := obj.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, exists := binaryLevels[level][obj.peek().kind]
		if !exists {
			return a, nil
		}
		obj.next()
		b, err := obj.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		expr := &ast.ExprBinOp{Op: op, A: a, B: b}
		expr.Locate(a.Span().To(b.Span()))
		a = expr
	}
}

func (obj *parser) parseUnary() (ast.Expr, error) {
	tok, ok := obj.accept(tokNot, tokMinus)
	if !ok {
		return obj.parsePostfix()
	}
	a, err := obj.parseUnary()
	if err != nil {
		return nil, err
	}
	op := ast.OpNot
	if tok.kind == tokMinus {
		op = ast.OpNegative
	}
	expr := &ast.ExprUnaryOp{Op: op, A: a}
	expr.Locate(tok.span.To(a.Span()))
	return expr, nil
}

func (obj *parser) parsePostfix() (ast.Expr, error) {
	expr, err := obj.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch obj.peek().kind {
		case tokLBrack:
			obj.next()
			index, err := obj.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := obj.expect(tokRBrack)
			if err != nil {
				return nil, err
			}
			x := &ast.ExprIndex{Value: expr, Index: index}
			x.Locate(expr.Span().To(end.span))
			expr = x

		case tokDot:
			obj.next()
			field, ok := obj.accept(tokIdent, tokTrue, tokFalse, tokIf, tokThen, tokElse)
			if !ok {
				return nil, obj.unexpected(tokIdent.String())
			}
			x := &ast.ExprIndex{Value: expr, Index: ast.NewLiteral(field.span, field.text)}
			x.Locate(expr.Span().To(field.span))
			expr = x

		default:
			return expr, nil
		}
	}
}

var primaryExpected = []string{
	tokNumber.String(),
	tokString.String(),
	tokIdent.String(),
	tokTrue.String(),
	tokFalse.String(),
	tokIf.String(),
	tokNot.String(),
	tokMinus.String(),
	tokLParen.String(),
	tokLBrack.String(),
	tokLBrace.String(),
}

func (obj *parser) parsePrimary() (ast.Expr, error) {
	tok := obj.peek()
	switch tok.kind {
	case tokNumber, tokTrue, tokFalse:
		obj.next()
		text := tok.text
		if tok.kind != tokNumber {
			text = map[tokenKind]string{tokTrue: "true", tokFalse: "false"}[tok.kind]
		}
		return ast.NewLiteral(tok.span, text), nil

	case tokString:
		obj.next()
		return buildString(tok)

	case tokIdent:
		obj.next()
		if _, ok := obj.accept(tokLParen); ok {
			return obj.parseCall(tok)
		}
		expr := &ast.ExprVar{Name: interfaces.VarName(tok.text)}
		expr.Locate(tok.span)
		return expr, nil

	case tokLParen:
		obj.next()
		expr, err := obj.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := obj.expect(tokRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case tokLBrack:
		obj.next()
		return obj.parseList(tok)

	case tokLBrace:
		obj.next()
		return obj.parseMap(tok)

	case tokIf:
		obj.next()
		return obj.parseIfThenElse(tok)
	}
	return nil, obj.unexpected(primaryExpected...)
}

// parseSeparated parses a comma separated list of items, up to and including
// the closing token. A trailing comma is allowed.
func (obj *parser) parseSeparated(closing tokenKind, item func() error) (token, error) {
	for {
		if end, ok := obj.accept(closing); ok {
			return end, nil
		}
		if err := item(); err != nil {
			return token{}, err
		}
		if end, ok := obj.accept(closing); ok {
			return end, nil
		}
		if _, ok := obj.accept(tokComma); !ok {
			return token{}, obj.unexpected(tokComma.String(), closing.String())
		}
	}
}

func (obj *parser) parseCall(name token) (ast.Expr, error) {
	args := []ast.Expr{}
	end, err := obj.parseSeparated(tokRParen, func() error {
		arg, err := obj.parseExpr()
		if err != nil {
			return err
		}
		args = append(args, arg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	expr := &ast.ExprCall{Name: name.text, Args: args}
	expr.Locate(name.span.To(end.span))
	return expr, nil
}

func (obj *parser) parseList(start token) (ast.Expr, error) {
	elements := []ast.Expr{}
	end, err := obj.parseSeparated(tokRBrack, func() error {
		x, err := obj.parseExpr()
		if err != nil {
			return err
		}
		elements = append(elements, x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	expr := &ast.ExprList{Elements: elements}
	expr.Locate(start.span.To(end.span))
	return expr, nil
}

func (obj *parser) parseMap(start token) (ast.Expr, error) {
	kvs := []*ast.ExprMapKV{}
	end, err := obj.parseSeparated(tokRBrace, func() error {
		// keys stop short of the ternary so the colon isn't ambiguous
		k, err := obj.parseElvis()
		if err != nil {
			return err
		}
		if _, err := obj.expect(tokColon); err != nil {
			return err
		}
		v, err := obj.parseExpr()
		if err != nil {
			return err
		}
		kvs = append(kvs, &ast.ExprMapKV{Key: k, Val: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	expr := &ast.ExprMap{KVs: kvs}
	expr.Locate(start.span.To(end.span))
	return expr, nil
}

// buildString turns a string token into a literal, or into a concatenation if
// it contains interpolations.
func buildString(tok token) (ast.Expr, error) {
	hasInterp := false
	for _, seg := range tok.segments {
		if seg.interp {
			hasInterp = true
			break
		}
	}
	if !hasInterp {
		s := ""
		for _, seg := range tok.segments {
			s += seg.literal
		}
		return ast.NewLiteral(tok.span, s), nil
	}

	parts := []ast.Expr{}
	for _, seg := range tok.segments {
		if !seg.interp {
			parts = append(parts, ast.NewLiteral(seg.span, seg.literal))
			continue
		}
		p := &parser{tokens: seg.tokens}
		expr, err := p.parseAll()
		if err != nil {
			return nil, err
		}
		parts = append(parts, expr)
	}
	expr := &ast.ExprConcat{Parts: parts}
	expr.Locate(tok.span)
	return expr, nil
}
