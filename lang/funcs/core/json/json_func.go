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

// Package corejson contains the built-in functions that inspect JSON values.
package corejson

import (
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
)

func init() {
	funcs.Register(&funcs.Func{Name: "arraylength", MinArgs: 1, MaxArgs: 1, Fn: ArrayLength})
	funcs.Register(&funcs.Func{Name: "objectlength", MinArgs: 1, MaxArgs: 1, Fn: ObjectLength})
}

// ArrayLength returns the number of elements in a JSON array.
func ArrayLength(args []dynval.DynVal) (dynval.DynVal, error) {
	array, err := args[0].AsJSONArray()
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.FromInt(int64(len(array))), nil
}

// ObjectLength returns the number of keys in a JSON object.
func ObjectLength(args []dynval.DynVal) (dynval.DynVal, error) {
	object, err := args[0].AsJSONObject()
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.FromInt(int64(len(object))), nil
}
