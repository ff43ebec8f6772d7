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

// Package ast contains the structs implementing the expression language AST.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
)

// Expr is the interface that every expression node implements.
type Expr interface {
	fmt.Stringer

	// Span returns the region of source text this node was parsed from.
	Span() interfaces.Span

	// Apply is a general purpose iterator method that operates on any AST
	// node. Children are visited before their parent.
	Apply(fn func(Expr) error) error
}

// BinOp is a binary operator.
type BinOp int

// These are all the binary operators.
const (
	OpPlus BinOp = iota
	OpMinus
	OpTimes
	OpDiv
	OpMod
	OpEquals
	OpNotEquals
	OpAnd
	OpOr
	OpGT
	OpLT
	OpGE
	OpLE
	OpElvis
	OpRegexMatch
)

var binOpStrings = map[BinOp]string{
	OpPlus:       "+",
	OpMinus:      "-",
	OpTimes:      "*",
	OpDiv:        "/",
	OpMod:        "%",
	OpEquals:     "==",
	OpNotEquals:  "!=",
	OpAnd:        "&&",
	OpOr:         "||",
	OpGT:         ">",
	OpLT:         "<",
	OpGE:         ">=",
	OpLE:         "<=",
	OpElvis:      "?:",
	OpRegexMatch: "=~",
}

// String returns the operator as it is written.
func (obj BinOp) String() string {
	if s, exists := binOpStrings[obj]; exists {
		return s
	}
	return fmt.Sprintf("BinOp(%d)", int(obj))
}

// UnaryOp is a prefix operator.
type UnaryOp int

// These are all the unary operators.
const (
	OpNot UnaryOp = iota
	OpNegative
)

// String returns the operator as it is written.
func (obj UnaryOp) String() string {
	switch obj {
	case OpNot:
		return "!"
	case OpNegative:
		return "-"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(obj))
}

// ExprLiteral is a constant value.
type ExprLiteral struct {
	interfaces.Textarea

	Value dynval.DynVal
}

// String returns a short representation of this expression.
func (obj *ExprLiteral) String() string { return strconv.Quote(obj.Value.String()) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprLiteral) Apply(fn func(Expr) error) error { return fn(obj) }

// ExprVar is a reference to a variable.
type ExprVar struct {
	interfaces.Textarea

	Name interfaces.VarName
}

// String returns a short representation of this expression.
func (obj *ExprVar) String() string { return obj.Name.String() }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprVar) Apply(fn func(Expr) error) error { return fn(obj) }

// ExprBinOp is an infix operation on two operands.
type ExprBinOp struct {
	interfaces.Textarea

	Op BinOp
	A  Expr
	B  Expr
}

// String returns a short representation of this expression.
func (obj *ExprBinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", obj.A, obj.Op, obj.B)
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprBinOp) Apply(fn func(Expr) error) error {
	if err := obj.A.Apply(fn); err != nil {
		return err
	}
	if err := obj.B.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// ExprUnaryOp is a prefix operation on one operand.
type ExprUnaryOp struct {
	interfaces.Textarea

	Op UnaryOp
	A  Expr
}

// String returns a short representation of this expression.
func (obj *ExprUnaryOp) String() string { return fmt.Sprintf("%s%s", obj.Op, obj.A) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprUnaryOp) Apply(fn func(Expr) error) error {
	if err := obj.A.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// ExprIf is a conditional. Both the `c ? a : b` and the `if c then a else b`
// forms parse to this.
type ExprIf struct {
	interfaces.Textarea

	Condition  Expr
	ThenBranch Expr
	ElseBranch Expr
}

// String returns a short representation of this expression.
func (obj *ExprIf) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", obj.Condition, obj.ThenBranch, obj.ElseBranch)
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprIf) Apply(fn func(Expr) error) error {
	for _, x := range []Expr{obj.Condition, obj.ThenBranch, obj.ElseBranch} {
		if err := x.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// ExprIndex looks up an index or key in a JSON value. Dotted field access
// parses to this with a literal string index.
type ExprIndex struct {
	interfaces.Textarea

	Value Expr
	Index Expr
}

// String returns a short representation of this expression.
func (obj *ExprIndex) String() string { return fmt.Sprintf("%s[%s]", obj.Value, obj.Index) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprIndex) Apply(fn func(Expr) error) error {
	if err := obj.Value.Apply(fn); err != nil {
		return err
	}
	if err := obj.Index.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// ExprCall is a call of a built-in function.
type ExprCall struct {
	interfaces.Textarea

	Name string
	Args []Expr
}

// String returns a short representation of this expression.
func (obj *ExprCall) String() string {
	var s []string
	for _, x := range obj.Args {
		s = append(s, x.String())
	}
	return fmt.Sprintf("%s(%s)", obj.Name, strings.Join(s, ", "))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprCall) Apply(fn func(Expr) error) error {
	for _, x := range obj.Args {
		if err := x.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// ExprConcat joins the string forms of its parts. String interpolation parses
// to this.
type ExprConcat struct {
	interfaces.Textarea

	Parts []Expr
}

// String returns a short representation of this expression.
func (obj *ExprConcat) String() string {
	var s []string
	for _, x := range obj.Parts {
		s = append(s, x.String())
	}
	return fmt.Sprintf("concat(%s)", strings.Join(s, ", "))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprConcat) Apply(fn func(Expr) error) error {
	for _, x := range obj.Parts {
		if err := x.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// ExprList is an array literal.
type ExprList struct {
	interfaces.Textarea

	Elements []Expr
}

// String returns a short representation of this expression.
func (obj *ExprList) String() string {
	var s []string
	for _, x := range obj.Elements {
		s = append(s, x.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(s, ", "))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprList) Apply(fn func(Expr) error) error {
	for _, x := range obj.Elements {
		if err := x.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// ExprMapKV is one entry of a map literal.
type ExprMapKV struct {
	Key Expr
	Val Expr
}

// ExprMap is an object literal. Entries keep their source order.
type ExprMap struct {
	interfaces.Textarea

	KVs []*ExprMapKV
}

// String returns a short representation of this expression.
func (obj *ExprMap) String() string {
	var s []string
	for _, x := range obj.KVs {
		s = append(s, fmt.Sprintf("%s: %s", x.Key, x.Val))
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ", "))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprMap) Apply(fn func(Expr) error) error {
	for _, x := range obj.KVs {
		if err := x.Key.Apply(fn); err != nil {
			return err
		}
		if err := x.Val.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}
