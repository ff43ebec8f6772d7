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

// Package eval evaluates parsed expressions against a set of variables.
package eval

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
	_ "github.com/purpleidea/barstate/lang/funcs/core" // register the builtins
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// Env is the set of variables an expression is evaluated against.
type Env = map[interfaces.VarName]dynval.DynVal

// Eval evaluates an expression. Every variable it reaches must be in env. It
// has no hidden state, so the same inputs always give the same output.
func Eval(expr ast.Expr, env Env) (dynval.DynVal, error) {
	obj := &evaluator{env: env}
	return obj.eval(expr)
}

// EvalNoVars evaluates an expression that must not depend on any variable.
// Reaching a variable reference is an ErrNoVariablesAllowed error.
func EvalNoVars(expr ast.Expr) (dynval.DynVal, error) {
	obj := &evaluator{noVars: true}
	return obj.eval(expr)
}

type evaluator struct {
	env    Env
	noVars bool
}

func (obj *evaluator) eval(expr ast.Expr) (dynval.DynVal, error) {
	v, err := obj.evalNode(expr)
	if err != nil {
		return dynval.DynVal{}, err
	}
	return v.At(expr.Span()), nil
}

func (obj *evaluator) evalNode(expr ast.Expr) (dynval.DynVal, error) {
	span := expr.Span()
	switch x := expr.(type) {
	case *ast.ExprLiteral:
		return x.Value, nil

	case *ast.ExprVar:
		return obj.lookup(x)

	case *ast.ExprConcat:
		parts := []dynval.DynVal{}
		for _, part := range x.Parts {
			v, err := obj.eval(part)
			if err != nil {
				return dynval.DynVal{}, err
			}
			parts = append(parts, v)
		}
		return dynval.Concat(parts...), nil

	case *ast.ExprBinOp:
		return obj.binOp(x)

	case *ast.ExprUnaryOp:
		a, err := obj.eval(x.A)
		if err != nil {
			return dynval.DynVal{}, err
		}
		return unaryOp(x.Op, a, span)

	case *ast.ExprIf:
		cond, err := obj.eval(x.Condition)
		if err != nil {
			return dynval.DynVal{}, err
		}
		b, err := cond.AsBool()
		if err != nil {
			return dynval.DynVal{}, err
		}
		if b {
			return obj.eval(x.ThenBranch)
		}
		return obj.eval(x.ElseBranch)

	case *ast.ExprIndex:
		v, err := obj.eval(x.Value)
		if err != nil {
			return dynval.DynVal{}, err
		}
		index, err := obj.eval(x.Index)
		if err != nil {
			return dynval.DynVal{}, err
		}
		return jsonIndex(v, index, span)

	case *ast.ExprCall:
		return obj.call(x)

	case *ast.ExprList:
		elements := []interface{}{}
		for _, e := range x.Elements {
			v, err := obj.eval(e)
			if err != nil {
				return dynval.DynVal{}, err
			}
			elements = append(elements, jsonElement(e, v))
		}
		return dynval.FromJSON(elements)

	case *ast.ExprMap:
		m := make(map[string]interface{})
		for _, kv := range x.KVs {
			k, err := obj.eval(kv.Key)
			if err != nil {
				return dynval.DynVal{}, err
			}
			v, err := obj.eval(kv.Val)
			if err != nil {
				return dynval.DynVal{}, err
			}
			m[k.AsString()] = jsonElement(kv.Val, v)
		}
		return dynval.FromJSON(m)
	}
	return dynval.DynVal{}, newErr(ErrTypeMismatch, span, "unhandled expression %T", expr)
}

func (obj *evaluator) lookup(x *ast.ExprVar) (dynval.DynVal, error) {
	if obj.noVars {
		return dynval.DynVal{}, newErr(ErrNoVariablesAllowed, x.Span(), "`%s`", x.Name)
	}
	if v, exists := obj.env[x.Name]; exists {
		return v, nil
	}
	keys := []string{}
	for k := range obj.env {
		keys = append(keys, k.String())
	}
	err := newErr(ErrUnknownVariable, x.Span(), "`%s`", x.Name)
	err.Similar = util.SimilarStrings(x.Name.String(), keys, 3, 3)
	return dynval.DynVal{}, err
}

func (obj *evaluator) binOp(x *ast.ExprBinOp) (dynval.DynVal, error) {
	span := x.Span()
	a, err := obj.eval(x.A)
	if err != nil {
		return dynval.DynVal{}, err
	}

	// lazy operators only evaluate the right side when they need it
	switch x.Op {
	case ast.OpAnd, ast.OpOr:
		ab, err := a.AsBool()
		if err != nil {
			return dynval.DynVal{}, err
		}
		if (x.Op == ast.OpAnd) != ab {
			return dynval.FromBool(ab), nil
		}
		b, err := obj.eval(x.B)
		if err != nil {
			return dynval.DynVal{}, err
		}
		bb, err := b.AsBool()
		if err != nil {
			return dynval.DynVal{}, err
		}
		return dynval.FromBool(bb), nil

	case ast.OpElvis:
		if !a.IsEmpty() && a.String() != "null" {
			return a, nil
		}
		return obj.eval(x.B)
	}

	b, err := obj.eval(x.B)
	if err != nil {
		return dynval.DynVal{}, err
	}

	switch x.Op {
	case ast.OpEquals:
		return dynval.FromBool(a.Equal(b)), nil
	case ast.OpNotEquals:
		return dynval.FromBool(!a.Equal(b)), nil
	case ast.OpGT, ast.OpLT, ast.OpGE, ast.OpLE:
		return compare(x.Op, a, b), nil
	case ast.OpRegexMatch:
		re, err := regexp.Compile(b.AsString())
		if err != nil {
			return dynval.DynVal{}, &EvalErr{Err: ErrBadRegex, Str: "`" + b.AsString() + "`", Where: x.B.Span(), Cause: err}
		}
		return dynval.FromBool(re.MatchString(a.AsString())), nil
	}
	return arithmetic(x.Op, a, b, span)
}

func (obj *evaluator) call(x *ast.ExprCall) (dynval.DynVal, error) {
	span := x.Span()
	fn, err := funcs.Lookup(x.Name)
	if err != nil {
		e := newErr(ErrUnknownFunction, span, "`%s`", x.Name)
		e.Similar = util.SimilarStrings(x.Name, funcs.Names(), 3, 3)
		return dynval.DynVal{}, e
	}
	args := []dynval.DynVal{}
	for _, arg := range x.Args {
		v, err := obj.eval(arg)
		if err != nil {
			return dynval.DynVal{}, err
		}
		args = append(args, v)
	}
	result, err := fn.Call(args)
	if err != nil {
		return dynval.DynVal{}, &EvalErr{Err: ErrFunctionFailed, Str: "`" + x.Name + "`", Where: span, Cause: err}
	}
	return result, nil
}

// jsonElement decides how a value is embedded in an array or object literal.
// Nested literals are embedded as JSON, everything else as a string.
func jsonElement(expr ast.Expr, v dynval.DynVal) interface{} {
	switch expr.(type) {
	case *ast.ExprList, *ast.ExprMap:
		return json.RawMessage(v.String())
	}
	return v.String()
}

func unaryOp(op ast.UnaryOp, a dynval.DynVal, span interfaces.Span) (dynval.DynVal, error) {
	switch op {
	case ast.OpNot:
		b, err := a.AsBool()
		if err != nil {
			return dynval.DynVal{}, err
		}
		return dynval.FromBool(!b), nil

	case ast.OpNegative:
		if i, err := a.AsBigInt(); err == nil {
			return dynval.FromBigInt(i.Neg(i)), nil
		}
		f, err := a.AsFloat()
		if err != nil {
			return dynval.DynVal{}, &EvalErr{Err: ErrTypeMismatch, Str: "can't negate `" + a.String() + "`", Where: span, Cause: err}
		}
		return dynval.FromFloat(-f), nil
	}
	return dynval.DynVal{}, newErr(ErrTypeMismatch, span, "unknown operator %s", op)
}

// compare orders numbers numerically and falls back to comparing text when
// either side is not a number.
func compare(op ast.BinOp, a, b dynval.DynVal) dynval.DynVal {
	var c int
	af, aerr := a.AsFloat()
	bf, berr := b.AsFloat()
	if aerr == nil && berr == nil {
		c = compareFloats(af, bf)
		ai, aerr := a.AsBigInt()
		bi, berr := b.AsBigInt()
		if aerr == nil && berr == nil {
			c = ai.Cmp(bi)
		}
	} else {
		c = strings.Compare(a.String(), b.String())
	}
	switch op {
	case ast.OpGT:
		return dynval.FromBool(c > 0)
	case ast.OpLT:
		return dynval.FromBool(c < 0)
	case ast.OpGE:
		return dynval.FromBool(c >= 0)
	}
	return dynval.FromBool(c <= 0)
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// arithmetic runs a numeric operator. Integers stay integers of any size
// unless a division isn't exact. A plus with any non-numeric
// side is a concatenation.
func arithmetic(op ast.BinOp, a, b dynval.DynVal, span interfaces.Span) (dynval.DynVal, error) {
	if !a.IsNumber() || !b.IsNumber() {
		if op == ast.OpPlus {
			return dynval.Concat(a, b), nil
		}
		return dynval.DynVal{}, newErr(ErrTypeMismatch, span, "can't compute `%s` %s `%s`", a, op, b)
	}

	if ai, err := a.AsBigInt(); err == nil {
		if bi, err := b.AsBigInt(); err == nil {
			if v, ok, err := intArithmetic(op, ai, bi, span); err != nil || ok {
				return v, err
			}
		}
	}

	af, err := a.AsFloat()
	if err != nil {
		return dynval.DynVal{}, err
	}
	bf, err := b.AsFloat()
	if err != nil {
		return dynval.DynVal{}, err
	}
	switch op {
	case ast.OpPlus:
		return dynval.FromFloat(af + bf), nil
	case ast.OpMinus:
		return dynval.FromFloat(af - bf), nil
	case ast.OpTimes:
		return dynval.FromFloat(af * bf), nil
	case ast.OpDiv:
		if bf == 0 {
			return dynval.DynVal{}, newErr(ErrDivideByZero, span, "`%s` / `%s`", a, b)
		}
		return dynval.FromFloat(af / bf), nil
	case ast.OpMod:
		if bf == 0 {
			return dynval.DynVal{}, newErr(ErrDivideByZero, span, "`%s` %% `%s`", a, b)
		}
		return dynval.FromFloat(math.Mod(af, bf)), nil
	}
	return dynval.DynVal{}, newErr(ErrTypeMismatch, span, "unknown operator %s", op)
}

// intArithmetic computes on integers of any size. It returns ok as false when
// a division isn't exact, in which case the float path should be used.
func intArithmetic(op ast.BinOp, a, b *big.Int, span interfaces.Span) (dynval.DynVal, bool, error) {
	r := new(big.Int)
	switch op {
	case ast.OpPlus:
		return dynval.FromBigInt(r.Add(a, b)), true, nil
	case ast.OpMinus:
		return dynval.FromBigInt(r.Sub(a, b)), true, nil
	case ast.OpTimes:
		return dynval.FromBigInt(r.Mul(a, b)), true, nil
	case ast.OpDiv, ast.OpMod:
		if b.Sign() == 0 {
			return dynval.DynVal{}, false, newErr(ErrDivideByZero, span, "`%s` %s `%s`", a, op, b)
		}
		q, m := new(big.Int).QuoRem(a, b, r)
		if op == ast.OpMod {
			return dynval.FromBigInt(m), true, nil
		}
		if m.Sign() != 0 {
			return dynval.DynVal{}, false, nil
		}
		return dynval.FromBigInt(q), true, nil
	}
	return dynval.DynVal{}, false, nil
}

// jsonIndex looks up a key of an object or an element of an array. A missing
// key or element is an error rather than null.
func jsonIndex(v, index dynval.DynVal, span interfaces.Span) (dynval.DynVal, error) {
	doc, err := v.AsJSON()
	if err != nil {
		return dynval.DynVal{}, &EvalErr{Err: ErrTypeMismatch, Str: "can't index into `" + v.String() + "`", Where: span, Cause: err}
	}
	switch x := doc.(type) {
	case []interface{}:
		i, err := index.AsInt64()
		if err != nil {
			return dynval.DynVal{}, &EvalErr{Err: ErrTypeMismatch, Str: "array index must be an integer", Where: index.Span(), Cause: err}
		}
		if i < 0 || i >= int64(len(x)) {
			return dynval.DynVal{}, newErr(ErrIndexOutOfRange, span, "index %d of an array of length %d", i, len(x))
		}
		return dynval.FromJSONElement(x[i]), nil

	case map[string]interface{}:
		key := index.AsString()
		elem, exists := x[key]
		if !exists {
			e := newErr(ErrIndexOutOfRange, span, "no key `%s`", key)
			e.Similar = util.SimilarStrings(key, util.SortedKeys(x), 3, 3)
			return dynval.DynVal{}, e
		}
		return dynval.FromJSONElement(elem), nil
	}
	return dynval.DynVal{}, newErr(ErrTypeMismatch, span, "can't index into `%s`", v)
}
