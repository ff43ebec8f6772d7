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

// Package coremath contains the numeric built-in functions.
package coremath

import (
	"fmt"
	"math"
	"strconv"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
)

func init() {
	funcs.Register(&funcs.Func{Name: "round", MinArgs: 2, MaxArgs: 2, Fn: Round})
	funcs.Register(&funcs.Func{Name: "floor", MinArgs: 1, MaxArgs: 1, Fn: unary(math.Floor)})
	funcs.Register(&funcs.Func{Name: "ceil", MinArgs: 1, MaxArgs: 1, Fn: unary(math.Ceil)})
	funcs.Register(&funcs.Func{Name: "min", MinArgs: 1, MaxArgs: funcs.Variadic, Fn: fold(math.Min)})
	funcs.Register(&funcs.Func{Name: "max", MinArgs: 1, MaxArgs: funcs.Variadic, Fn: fold(math.Max)})
	funcs.Register(&funcs.Func{Name: "powi", MinArgs: 2, MaxArgs: 2, Fn: Powi})
	funcs.Register(&funcs.Func{Name: "sin", MinArgs: 1, MaxArgs: 1, Fn: unary(math.Sin)})
	funcs.Register(&funcs.Func{Name: "cos", MinArgs: 1, MaxArgs: 1, Fn: unary(math.Cos)})
	funcs.Register(&funcs.Func{Name: "tan", MinArgs: 1, MaxArgs: 1, Fn: unary(math.Tan)})
	funcs.Register(&funcs.Func{Name: "cot", MinArgs: 1, MaxArgs: 1, Fn: unary(func(x float64) float64 { return 1 / math.Tan(x) })})
	funcs.Register(&funcs.Func{Name: "degtorad", MinArgs: 1, MaxArgs: 1, Fn: unary(func(x float64) float64 { return x * math.Pi / 180 })})
	funcs.Register(&funcs.Func{Name: "radtodeg", MinArgs: 1, MaxArgs: 1, Fn: unary(func(x float64) float64 { return x * 180 / math.Pi })})
}

func unary(fn func(float64) float64) func([]dynval.DynVal) (dynval.DynVal, error) {
	return func(args []dynval.DynVal) (dynval.DynVal, error) {
		x, err := args[0].AsFloat()
		if err != nil {
			return dynval.DynVal{}, err
		}
		return dynval.FromFloat(fn(x)), nil
	}
}

func fold(fn func(float64, float64) float64) func([]dynval.DynVal) (dynval.DynVal, error) {
	return func(args []dynval.DynVal) (dynval.DynVal, error) {
		result, err := args[0].AsFloat()
		if err != nil {
			return dynval.DynVal{}, err
		}
		for _, arg := range args[1:] {
			x, err := arg.AsFloat()
			if err != nil {
				return dynval.DynVal{}, err
			}
			result = fn(result, x)
		}
		return dynval.FromFloat(result), nil
	}
}

// Round rounds a number to a fixed number of decimal places. The result keeps
// the trailing zeros, so round(1.5, 2) is "1.50".
func Round(args []dynval.DynVal) (dynval.DynVal, error) {
	x, err := args[0].AsFloat()
	if err != nil {
		return dynval.DynVal{}, err
	}
	digits, err := args[1].AsInt32()
	if err != nil {
		return dynval.DynVal{}, err
	}
	if digits < 0 {
		return dynval.DynVal{}, fmt.Errorf("digits must not be negative")
	}
	return dynval.New(strconv.FormatFloat(x, 'f', int(digits), 64)), nil
}

// Powi raises a number to an integer power.
func Powi(args []dynval.DynVal) (dynval.DynVal, error) {
	x, err := args[0].AsFloat()
	if err != nil {
		return dynval.DynVal{}, err
	}
	n, err := args[1].AsInt32()
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.FromFloat(math.Pow(x, float64(n))), nil
}
