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

package ast

import (
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
)

// NewLiteral builds a literal node with a span. The value points at the same
// span so that conversion errors on it can be located.
func NewLiteral(span interfaces.Span, s string) *ExprLiteral {
	obj := &ExprLiteral{Value: dynval.New(s).At(span)}
	obj.Locate(span)
	return obj
}

// Synth builds a literal node that doesn't come from any source text.
func Synth(v dynval.DynVal) *ExprLiteral {
	return &ExprLiteral{Value: v}
}

// VarRefs returns each variable referenced in the expression once, in the
// order of first appearance.
func VarRefs(expr Expr) []interfaces.VarName {
	seen := make(map[interfaces.VarName]struct{})
	result := []interfaces.VarName{}
	for _, x := range VarRefNodes(expr) {
		if _, exists := seen[x.Name]; exists {
			continue
		}
		seen[x.Name] = struct{}{}
		result = append(result, x.Name)
	}
	return result
}

// VarRefNodes returns every variable node in the expression, in source order,
// including repeats. It's useful for reporting the span of a bad reference.
func VarRefNodes(expr Expr) []*ExprVar {
	result := []*ExprVar{}
	_ = expr.Apply(func(node Expr) error { // never errors
		if x, ok := node.(*ExprVar); ok {
			result = append(result, x)
		}
		return nil
	})
	return result
}

// IsStatic returns true if the expression references no variables.
func IsStatic(expr Expr) bool {
	return len(VarRefNodes(expr)) == 0
}
